// Package validation provides input validation for command names and manual
// section numbers before they are handed to any subprocess.
//
// Every tool argument that ends up in an exec call passes through here first.
// Validation is pure string work: no filesystem access, no subprocesses.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxCommandNameLength caps the length of a command name after extraction.
// Legitimate executable names are far shorter; anything beyond this is noise
// or an attempt to stuff the argument vector.
const MaxCommandNameLength = 128

// commandNamePattern matches names that are safe to pass as a single argv
// element: letters, digits, underscore, dot and dash. Notably absent are
// slashes, spaces, quotes and shell metacharacters.
var commandNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// InvalidNameError reports a command name that failed validation.
// Name holds the rejected first field (possibly empty when the input was
// blank), which callers surface back to the user verbatim.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid command name: %q", e.Name)
}

// CommandName extracts and validates the command name from raw user input.
//
// Only the first whitespace-separated field is considered; anything after it
// (flags, arguments, pipelines) is discarded. The field must match
// commandNamePattern and stay within MaxCommandNameLength. A blank input
// yields an InvalidNameError with an empty Name.
func CommandName(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", &InvalidNameError{Name: ""}
	}

	name := fields[0]
	if len(name) > MaxCommandNameLength {
		return "", &InvalidNameError{Name: name}
	}
	if !commandNamePattern.MatchString(name) {
		return "", &InvalidNameError{Name: name}
	}
	return name, nil
}

// ManSection checks that section is a valid manual section number (1 through 9).
// Zero is not a valid section; callers use a separate sentinel (absent field)
// for "search all sections".
func ManSection(section int) error {
	if section < 1 || section > 9 {
		return fmt.Errorf("invalid manual section %d (must be 1-9)", section)
	}
	return nil
}
