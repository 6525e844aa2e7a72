// Package manual looks up documentation for Unix commands by shelling out
// to the tools the system already provides. Help flags are the economic
// path because they finish fast and cost nothing to render; man pages are
// the thorough one, piped through col -b to strip typesetting.
//
// Every probe reads stdout only. Many tools print usage to stderr when they
// reject a flag, and that text is an error message, not documentation.
// Subprocesses never go through a shell (the resolver's command -v line is
// the single exception) and always run under a deadline.
package manual

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"unixman/internal/logging"
	"unixman/internal/validation"
)

// Defaults applied by Options.withDefaults. Man gets twice the help budget
// because formatting a page on a cold cache can be slow.
const (
	DefaultShell          = "/bin/zsh"
	DefaultHelpTimeout    = 5 * time.Second
	DefaultManTimeout     = 10 * time.Second
	DefaultResolveTimeout = 5 * time.Second
)

// Options configures an Engine. The zero value is usable: an empty Shell
// picks up $SHELL and zero timeouts fall back to the defaults.
type Options struct {
	Shell          string
	HelpTimeout    time.Duration
	ManTimeout     time.Duration
	ResolveTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Shell == "" {
		o.Shell = os.Getenv("SHELL")
	}
	if o.Shell == "" {
		o.Shell = DefaultShell
	}
	if o.HelpTimeout <= 0 {
		o.HelpTimeout = DefaultHelpTimeout
	}
	if o.ManTimeout <= 0 {
		o.ManTimeout = DefaultManTimeout
	}
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = DefaultResolveTimeout
	}
	return o
}

// Most help text mentions usage, options, or the tool's version; a bare
// semver is accepted too since some tools lead with it. The bare "help"
// subcommand gets the stricter pattern because running it can have side
// effects on tools where "help" is not a word they know.
var (
	helpTextPattern      = regexp.MustCompile(`(?i)usage|options|help|version`)
	versionNumberPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)
	bareHelpPattern      = regexp.MustCompile(`(?i)usage|options|help`)
)

// Engine answers documentation and existence queries for Unix commands.
// It is safe for concurrent use: all state is set at construction.
type Engine struct {
	opts     Options
	runner   Runner
	resolver Resolver
	log      *logging.AppLogger
}

// NewEngine builds an Engine. A nil logger selects the process default.
func NewEngine(opts Options, logger *logging.AppLogger) *Engine {
	if logger == nil {
		logger = logging.GetDefault()
	}
	opts = opts.withDefaults()
	runner := newExecRunner(logger)

	return &Engine{
		opts:     opts,
		runner:   runner,
		resolver: newShellResolver(opts.Shell, opts.ResolveTimeout, runner, logger),
		log:      logger,
	}
}

// Documentation finds documentation for req.Command.
//
// With PreferEconomic set, help flags are probed before man; otherwise man
// runs first with the help funnel as fallback. When the command line carries
// a bare subcommand ("git commit"), "<command> <subcommand> --help" is tried
// ahead of the command's own help.
//
// Errors are *validation.InvalidNameError, *NotFoundError, or
// *NoDocumentationError; ErrorMessage turns them into client text.
func (e *Engine) Documentation(ctx context.Context, req DocRequest) (*DocResult, error) {
	e.log.Info("Getting documentation",
		"command", req.Command,
		"prefer_economic", req.PreferEconomic,
		"man_section", req.ManSection)

	main, err := validation.CommandName(req.Command)
	if err != nil {
		e.log.Warn("Invalid command name", "command", req.Command)
		return nil, err
	}

	path, err := e.resolvePath(ctx, main)
	if err != nil {
		return nil, err
	}

	sub := subcommandOf(req.Command)

	if req.PreferEconomic {
		if sub != "" {
			if res := e.subcommandHelp(ctx, main, sub, path); res != nil {
				return res, nil
			}
		}
		if res := e.helpFunnel(ctx, main, path); res != nil {
			return res, nil
		}
		if res := e.directHelp(ctx, main, path); res != nil {
			return res, nil
		}
	}

	if res := e.manPage(ctx, main, req.ManSection); res != nil {
		return res, nil
	}

	if !req.PreferEconomic {
		if res := e.helpFunnel(ctx, main, path); res != nil {
			return res, nil
		}
	}

	e.log.Warn("All documentation methods failed", "command", req.Command)
	return nil, &NoDocumentationError{Command: req.Command}
}

// Check reports whether a command exists and probes it for version output.
// A missing command is a successful check with Exists false, not an error.
func (e *Engine) Check(ctx context.Context, command string) (*CheckResult, error) {
	e.log.Info("Checking if command exists", "command", command)

	name, err := validation.CommandName(command)
	if err != nil {
		e.log.Warn("Invalid command name", "command", command)
		return nil, err
	}

	path, err := e.resolvePath(ctx, name)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			e.log.Warn("Command does not exist", "command", name)
			return &CheckResult{Name: name, Exists: false}, nil
		}
		return nil, err
	}

	e.log.Info("Command exists", "command", name, "path", path)
	result := &CheckResult{Name: name, Path: path, Exists: true}

	for _, probe := range []string{"--version", "-V", "version"} {
		res := e.probe(ctx, path, probe)
		if res == nil || res.ExitCode >= 2 {
			continue
		}
		if out := strings.TrimSpace(res.Stdout); out != "" {
			e.log.Debug("Got version info", "command", name, "probe", probe)
			result.Version = out
			break
		}
	}

	return result, nil
}

// resolvePath resolves a validated name, folding every resolution failure
// into NotFoundError. The real cause is logged; clients only need to know
// the command could not be located.
func (e *Engine) resolvePath(ctx context.Context, name string) (string, error) {
	path, err := e.resolver.Resolve(ctx, name)
	if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			e.log.Warn("Command resolution failed", "command", name, "error", err)
			err = &NotFoundError{Name: name}
		}
		return "", err
	}
	return path, nil
}

// probe runs one help or version invocation, returning nil when the
// subprocess could not run at all. Exit codes are the caller's problem.
func (e *Engine) probe(ctx context.Context, path string, args ...string) *ExecResult {
	res, err := e.runner.Run(ctx, e.opts.HelpTimeout, path, args...)
	if err != nil {
		return nil
	}
	return res
}

// helpFunnel walks the help flags in order of reliability. Output must look
// like help text to be accepted; plenty of commands exit 0 and print
// something else entirely.
func (e *Engine) helpFunnel(ctx context.Context, name, path string) *DocResult {
	for _, flag := range []string{"--help", "-h"} {
		e.log.Debug("Trying help flag", "command", name, "flag", flag)

		res := e.probe(ctx, path, flag)
		if res == nil || res.ExitCode >= 2 {
			continue
		}
		out := strings.TrimSpace(res.Stdout)
		if out == "" {
			continue
		}
		if helpTextPattern.MatchString(out) || versionNumberPattern.MatchString(out) {
			e.log.Info("Found help documentation", "command", name, "probe", flag)
			return &DocResult{Command: name, Source: SourceHelp, Text: out}
		}
		e.log.Debug("Output did not match help text pattern", "command", name, "probe", flag)
	}

	e.log.Debug("Trying help subcommand", "command", name)
	if res := e.probe(ctx, path, "help"); res != nil && res.ExitCode < 2 {
		out := strings.TrimSpace(res.Stdout)
		if out != "" && bareHelpPattern.MatchString(out) {
			e.log.Info("Found help documentation", "command", name, "probe", "help")
			return &DocResult{Command: name, Source: SourceHelp, Text: out}
		}
	}

	e.log.Warn("No help documentation found", "command", name)
	return nil
}

// subcommandHelp probes "<path> <sub> --help" and friends. Acceptance is
// looser than the funnel's: subcommand help rarely says "usage" but a tool
// that prints anything for its own subcommand is answering the question.
func (e *Engine) subcommandHelp(ctx context.Context, main, sub, path string) *DocResult {
	label := main + " " + sub
	e.log.Debug("Trying subcommand help first", "command", label)

	for _, flag := range []string{"--help", "-h", "help"} {
		res := e.probe(ctx, path, sub, flag)
		if res == nil || res.ExitCode >= 2 {
			continue
		}
		if out := strings.TrimSpace(res.Stdout); out != "" {
			e.log.Info("Found subcommand help documentation", "command", label, "probe", flag)
			return &DocResult{Command: label, Source: SourceHelp, Text: out}
		}
	}

	return nil
}

// directHelp is the last economic resort: any --help output at all, with no
// pattern check. Catches tools whose help text avoids the usual wording.
func (e *Engine) directHelp(ctx context.Context, name, path string) *DocResult {
	res := e.probe(ctx, path, "--help")
	if res == nil || res.Stdout == "" || res.ExitCode >= 2 {
		return nil
	}

	e.log.Info("Found help docs by direct --help check", "command", name)
	return &DocResult{Command: name, Source: SourceHelp, Text: strings.TrimSpace(res.Stdout)}
}

// manPage runs man and strips the typesetting with col -b. Sections outside
// 1..9 are ignored rather than rejected. A missing col falls back to the
// raw man output, which is unpleasant but still documentation.
func (e *Engine) manPage(ctx context.Context, name string, section int) *DocResult {
	var args []string
	if section >= 1 && section <= 9 {
		args = append(args, strconv.Itoa(section))
	}
	args = append(args, name)

	e.log.Debug("Trying man page", "command", name, "args", args)

	res, err := e.runner.Run(ctx, e.opts.ManTimeout, "man", args...)
	if err != nil {
		e.log.Error("Man command failed", "command", name, "error", err)
		return nil
	}
	if res.ExitCode != 0 {
		e.log.Warn("Man command failed",
			"command", name,
			"exit_code", res.ExitCode,
			"stderr", strings.TrimSpace(res.Stderr))
		return nil
	}

	text := res.Stdout
	col, err := e.runner.RunInput(ctx, e.opts.ManTimeout, text, "col", "-b")
	if err == nil && col.ExitCode == 0 {
		text = col.Stdout
	} else {
		e.log.Warn("col -b failed, returning raw man output", "command", name)
	}

	e.log.Info("Successfully retrieved man page", "command", name)
	return &DocResult{Command: name, Source: SourceMan, Text: text}
}

// subcommandOf extracts a probable subcommand: the second whitespace field,
// when it is a bare word rather than an option and passes name validation.
func subcommandOf(command string) string {
	fields := strings.Fields(command)
	if len(fields) < 2 || strings.HasPrefix(fields[1], "-") {
		return ""
	}
	if _, err := validation.CommandName(fields[1]); err != nil {
		return ""
	}
	return fields[1]
}
