package manual

import (
	"errors"
	"fmt"

	"unixman/internal/validation"
)

// DocSource identifies which probe produced a piece of documentation.
type DocSource string

const (
	// SourceHelp means the text came from a --help style invocation.
	SourceHelp DocSource = "help"

	// SourceMan means the text came from a man page piped through col -b.
	SourceMan DocSource = "man"
)

// DocRequest asks for documentation for one command line. Command may carry
// arguments ("git commit file.txt"); only the leading name is validated and
// resolved, though a second bare word is tried as a subcommand.
type DocRequest struct {
	Command        string
	PreferEconomic bool
	ManSection     int // 0 means no section, values outside 1..9 are ignored
}

// DocResult is a successful documentation lookup.
type DocResult struct {
	// Command is the display label: the resolved command name, plus the
	// subcommand when one was probed ("git commit").
	Command string

	Source DocSource

	// Text is the captured documentation. Help output is whitespace-trimmed,
	// man output is kept as produced.
	Text string
}

// Message renders the result in the wire format clients expect.
func (r *DocResult) Message() string {
	if r.Source == SourceMan {
		return fmt.Sprintf("Manual page for '%s':\n\n%s", r.Command, r.Text)
	}
	return fmt.Sprintf("Help output for '%s':\n\n%s", r.Command, r.Text)
}

// CheckResult reports whether a command exists and, when available, what its
// version probe printed.
type CheckResult struct {
	Name    string
	Path    string
	Exists  bool
	Version string
}

// Message renders the result in the wire format clients expect.
func (r *CheckResult) Message() string {
	switch {
	case !r.Exists:
		return fmt.Sprintf("Command '%s' does not exist or is not in the PATH.", r.Name)
	case r.Version != "":
		return fmt.Sprintf("Command '%s' exists at %s.\nVersion information: %s", r.Name, r.Path, r.Version)
	default:
		return fmt.Sprintf("Command '%s' exists on this system at %s.", r.Name, r.Path)
	}
}

// NotFoundError reports a command name that did not resolve to a path.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: %q", e.Name)
}

// NoDocumentationError reports that every documentation probe failed for a
// command that does exist. Command holds the caller's original input.
type NoDocumentationError struct {
	Command string
}

func (e *NoDocumentationError) Error() string {
	return fmt.Sprintf("no documentation available for %q", e.Command)
}

// ErrorMessage maps an engine error onto the message text clients expect.
// Unknown errors pass through as their Error string.
func ErrorMessage(err error) string {
	var invalid *validation.InvalidNameError
	if errors.As(err, &invalid) {
		return fmt.Sprintf("Invalid command name: '%s'", invalid.Name)
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("Command not found: '%s'", notFound.Name)
	}

	var noDoc *NoDocumentationError
	if errors.As(err, &noDoc) {
		return fmt.Sprintf("No documentation available for '%s'", noDoc.Command)
	}

	return err.Error()
}
