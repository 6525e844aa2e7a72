package manual

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"unixman/internal/logging"
	"unixman/internal/validation"
)

// runnerCall records one subprocess request made against the fake runner.
type runnerCall struct {
	name  string
	args  []string
	input string
}

func (c runnerCall) argv() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

type fakeResponse struct {
	result *ExecResult
	err    error
}

// fakeRunner scripts responses per argv line. Unscripted invocations come
// back as exit 127 with no output, which every probe rejects.
type fakeRunner struct {
	calls     []runnerCall
	responses map[string]fakeResponse
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]fakeResponse)}
}

func (f *fakeRunner) on(argv string, result *ExecResult, err error) {
	f.responses[argv] = fakeResponse{result: result, err: err}
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) (*ExecResult, error) {
	return f.dispatch(runnerCall{name: name, args: args})
}

func (f *fakeRunner) RunInput(_ context.Context, _ time.Duration, input, name string, args ...string) (*ExecResult, error) {
	return f.dispatch(runnerCall{name: name, args: args, input: input})
}

func (f *fakeRunner) dispatch(call runnerCall) (*ExecResult, error) {
	f.calls = append(f.calls, call)
	if resp, ok := f.responses[call.argv()]; ok {
		return resp.result, resp.err
	}
	return &ExecResult{ExitCode: 127}, nil
}

func (f *fakeRunner) sawArgv(argv string) bool {
	for _, call := range f.calls {
		if call.argv() == argv {
			return true
		}
	}
	return false
}

// fixedResolver resolves every name to one path (or error) and records the
// names it was asked about.
type fixedResolver struct {
	path  string
	err   error
	names []string
}

func (r *fixedResolver) Resolve(_ context.Context, name string) (string, error) {
	r.names = append(r.names, name)
	if r.err != nil {
		return "", r.err
	}
	return r.path, nil
}

func newTestEngine(t *testing.T, runner Runner, resolver Resolver) *Engine {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	return &Engine{
		opts:     Options{}.withDefaults(),
		runner:   runner,
		resolver: resolver,
		log:      logger,
	}
}

func TestDocumentationInvalidName(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"semicolon", "rm;ls", "Invalid command name: 'rm;ls'"},
		{"subshell", "$(whoami)", "Invalid command name: '$(whoami)'"},
		{"backticks", "`id`", "Invalid command name: '`id`'"},
		{"pipe", "cat|sh", "Invalid command name: 'cat|sh'"},
		{"path traversal", "../../bin/sh", "Invalid command name: '../../bin/sh'"},
		{"empty", "", "Invalid command name: ''"},
		{"whitespace only", "   ", "Invalid command name: ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			resolver := &fixedResolver{path: "/bin/sh"}
			engine := newTestEngine(t, runner, resolver)

			_, err := engine.Documentation(context.Background(), DocRequest{Command: tt.command, PreferEconomic: true})
			if err == nil {
				t.Fatal("Expected error for invalid command name")
			}

			var invalid *validation.InvalidNameError
			if !errors.As(err, &invalid) {
				t.Fatalf("Expected InvalidNameError, got %T: %v", err, err)
			}
			if got := ErrorMessage(err); got != tt.want {
				t.Errorf("ErrorMessage = %q, want %q", got, tt.want)
			}

			// Rejection must happen before anything is spawned
			if len(runner.calls) != 0 {
				t.Errorf("Expected no subprocess calls, got %d", len(runner.calls))
			}
			if len(resolver.names) != 0 {
				t.Errorf("Expected no resolution attempts, got %v", resolver.names)
			}
		})
	}
}

func TestDocumentationCommandNotFound(t *testing.T) {
	runner := newFakeRunner()
	resolver := &fixedResolver{err: &NotFoundError{Name: "ghostcmd"}}
	engine := newTestEngine(t, runner, resolver)

	_, err := engine.Documentation(context.Background(), DocRequest{Command: "ghostcmd", PreferEconomic: true})

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
	if got := ErrorMessage(err); got != "Command not found: 'ghostcmd'" {
		t.Errorf("ErrorMessage = %q", got)
	}
	if len(runner.calls) != 0 {
		t.Errorf("Expected no probes for unresolved command, got %d calls", len(runner.calls))
	}
}

func TestDocumentationEconomicHelp(t *testing.T) {
	runner := newFakeRunner()
	runner.on("/usr/bin/ls --help", &ExecResult{
		Stdout: "Usage: ls [OPTION]... [FILE]...\nList information about the FILEs.\n",
	}, nil)
	resolver := &fixedResolver{path: "/usr/bin/ls"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "ls", PreferEconomic: true})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}

	want := "Help output for 'ls':\n\nUsage: ls [OPTION]... [FILE]...\nList information about the FILEs."
	if res.Message() != want {
		t.Errorf("Message = %q, want %q", res.Message(), want)
	}
	if res.Source != SourceHelp {
		t.Errorf("Source = %q, want %q", res.Source, SourceHelp)
	}
	if runner.calls[0].argv() != "/usr/bin/ls --help" {
		t.Errorf("First probe = %q, want --help", runner.calls[0].argv())
	}
}

func TestDocumentationFallsBackToDashH(t *testing.T) {
	runner := newFakeRunner()
	runner.on("/usr/bin/tar --help", &ExecResult{Stdout: "try 'tar --usage'", ExitCode: 2}, nil)
	runner.on("/usr/bin/tar -h", &ExecResult{Stdout: "Usage: tar [OPTION...] [FILE]...\n"}, nil)
	resolver := &fixedResolver{path: "/usr/bin/tar"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "tar", PreferEconomic: true})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}

	if !strings.HasPrefix(res.Message(), "Help output for 'tar':\n\n") {
		t.Errorf("Message = %q", res.Message())
	}
	if !strings.Contains(res.Text, "Usage: tar") {
		t.Errorf("Text = %q", res.Text)
	}
	if runner.calls[0].argv() != "/usr/bin/tar --help" || runner.calls[1].argv() != "/usr/bin/tar -h" {
		t.Errorf("Probe order wrong: %v, %v", runner.calls[0].argv(), runner.calls[1].argv())
	}
}

func TestDocumentationVersionPatternAccepted(t *testing.T) {
	// No usage/options/help wording, but a semver is evidence enough
	runner := newFakeRunner()
	runner.on("/opt/bin/mytool --help", &ExecResult{Stdout: "mytool 3.2.1\nAll rights reserved.\n"}, nil)
	resolver := &fixedResolver{path: "/opt/bin/mytool"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "mytool", PreferEconomic: true})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}
	if !strings.Contains(res.Text, "mytool 3.2.1") {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestDocumentationBareHelpProbe(t *testing.T) {
	t.Run("usage text accepted", func(t *testing.T) {
		runner := newFakeRunner()
		runner.on("/usr/bin/tool --help", &ExecResult{}, nil) // exit 0, no output
		runner.on("/usr/bin/tool -h", &ExecResult{}, nil)
		runner.on("/usr/bin/tool help", &ExecResult{Stdout: "Usage: tool <subcommand>\n"}, nil)
		resolver := &fixedResolver{path: "/usr/bin/tool"}
		engine := newTestEngine(t, runner, resolver)

		res, err := engine.Documentation(context.Background(), DocRequest{Command: "tool", PreferEconomic: true})
		if err != nil {
			t.Fatalf("Documentation failed: %v", err)
		}
		want := "Help output for 'tool':\n\nUsage: tool <subcommand>"
		if res.Message() != want {
			t.Errorf("Message = %q, want %q", res.Message(), want)
		}
	})

	t.Run("version-only text rejected", func(t *testing.T) {
		// The bare help probe does not take a version string as an answer;
		// --help and -h produce nothing here, so the lookup fails outright.
		runner := newFakeRunner()
		runner.on("/usr/bin/tool --help", &ExecResult{}, nil)
		runner.on("/usr/bin/tool -h", &ExecResult{}, nil)
		runner.on("/usr/bin/tool help", &ExecResult{Stdout: "internal tool 1.2.3\n"}, nil)
		resolver := &fixedResolver{path: "/usr/bin/tool"}
		engine := newTestEngine(t, runner, resolver)

		_, err := engine.Documentation(context.Background(), DocRequest{Command: "tool", PreferEconomic: true})
		var noDoc *NoDocumentationError
		if !errors.As(err, &noDoc) {
			t.Fatalf("Expected NoDocumentationError, got %v", err)
		}
	})
}

func TestDocumentationIgnoresStderr(t *testing.T) {
	// Usage printed to stderr is an error message, not documentation
	runner := newFakeRunner()
	runner.on("/usr/bin/dd --help", &ExecResult{Stderr: "Usage: dd [OPERAND]...\n", ExitCode: 1}, nil)
	runner.on("/usr/bin/dd -h", &ExecResult{Stderr: "Usage: dd [OPERAND]...\n", ExitCode: 1}, nil)
	runner.on("/usr/bin/dd help", &ExecResult{Stderr: "Usage: dd [OPERAND]...\n", ExitCode: 1}, nil)
	resolver := &fixedResolver{path: "/usr/bin/dd"}
	engine := newTestEngine(t, runner, resolver)

	_, err := engine.Documentation(context.Background(), DocRequest{Command: "dd", PreferEconomic: true})

	var noDoc *NoDocumentationError
	if !errors.As(err, &noDoc) {
		t.Fatalf("Expected NoDocumentationError when only stderr speaks, got %v", err)
	}
}

func TestDocumentationDirectHelpRetry(t *testing.T) {
	// Output matches no help pattern, but the unfiltered retry takes any
	// non-empty --help stdout before falling back to man
	runner := newFakeRunner()
	runner.on("/usr/bin/quirky --help", &ExecResult{Stdout: "no recognizable wording here\n"}, nil)
	resolver := &fixedResolver{path: "/usr/bin/quirky"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "quirky", PreferEconomic: true})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}

	want := "Help output for 'quirky':\n\nno recognizable wording here"
	if res.Message() != want {
		t.Errorf("Message = %q, want %q", res.Message(), want)
	}
	if runner.sawArgv("man quirky") {
		t.Error("man should not run when the direct --help retry succeeds")
	}
}

func TestDocumentationManFallback(t *testing.T) {
	manOut := "GREP(1)                 User Commands                GREP(1)\n"
	colOut := "GREP(1)  User Commands  GREP(1)\n\nNAME\n  grep - print lines\n"

	runner := newFakeRunner()
	runner.on("man grep", &ExecResult{Stdout: manOut}, nil)
	runner.on("col -b", &ExecResult{Stdout: colOut}, nil)
	resolver := &fixedResolver{path: "/usr/bin/grep"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "grep", PreferEconomic: true})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}

	if res.Source != SourceMan {
		t.Errorf("Source = %q, want %q", res.Source, SourceMan)
	}
	want := "Manual page for 'grep':\n\n" + colOut
	if res.Message() != want {
		t.Errorf("Message = %q, want %q", res.Message(), want)
	}

	// col must receive the raw man output on stdin
	for _, call := range runner.calls {
		if call.argv() == "col -b" && call.input != manOut {
			t.Errorf("col input = %q, want man output", call.input)
		}
	}
}

func TestDocumentationManSection(t *testing.T) {
	tests := []struct {
		name    string
		section int
		argv    string
	}{
		{"explicit section", 5, "man 5 crontab"},
		{"no section", 0, "man crontab"},
		{"out of range ignored", 12, "man crontab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.on(tt.argv, &ExecResult{Stdout: "CRONTAB(5)\n"}, nil)
			runner.on("col -b", &ExecResult{Stdout: "CRONTAB(5)\n"}, nil)
			resolver := &fixedResolver{path: "/usr/bin/crontab"}
			engine := newTestEngine(t, runner, resolver)

			res, err := engine.Documentation(context.Background(), DocRequest{
				Command:        "crontab",
				PreferEconomic: false,
				ManSection:     tt.section,
			})
			if err != nil {
				t.Fatalf("Documentation failed: %v", err)
			}
			if !runner.sawArgv(tt.argv) {
				t.Errorf("Expected man invocation %q, calls: %v", tt.argv, runner.calls)
			}
			if res.Source != SourceMan {
				t.Errorf("Source = %q, want %q", res.Source, SourceMan)
			}
		})
	}
}

func TestDocumentationManFirstWhenNotEconomic(t *testing.T) {
	runner := newFakeRunner()
	runner.on("man ls", &ExecResult{Stdout: "LS(1)\n"}, nil)
	runner.on("col -b", &ExecResult{Stdout: "LS(1)\n"}, nil)
	resolver := &fixedResolver{path: "/usr/bin/ls"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "ls", PreferEconomic: false})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}
	if res.Source != SourceMan {
		t.Errorf("Source = %q, want %q", res.Source, SourceMan)
	}
	if runner.calls[0].argv() != "man ls" {
		t.Errorf("First call = %q, want man first", runner.calls[0].argv())
	}
}

func TestDocumentationManFailsThenHelp(t *testing.T) {
	runner := newFakeRunner()
	runner.on("man widget", &ExecResult{Stderr: "No manual entry for widget\n", ExitCode: 16}, nil)
	runner.on("/usr/bin/widget --help", &ExecResult{Stdout: "Usage: widget [options]\n"}, nil)
	resolver := &fixedResolver{path: "/usr/bin/widget"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "widget", PreferEconomic: false})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}

	if res.Source != SourceHelp {
		t.Errorf("Source = %q, want fallback to help", res.Source)
	}
	if runner.calls[0].argv() != "man widget" {
		t.Errorf("First call = %q, want man", runner.calls[0].argv())
	}
}

func TestDocumentationColFailureKeepsRawMan(t *testing.T) {
	manOut := "RAW(1) with\bbackspace overstrikes\n"

	runner := newFakeRunner()
	runner.on("man raw", &ExecResult{Stdout: manOut}, nil)
	runner.on("col -b", nil, errors.New("exec: \"col\": executable file not found in $PATH"))
	resolver := &fixedResolver{path: "/usr/bin/raw"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "raw", PreferEconomic: false})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}
	if res.Text != manOut {
		t.Errorf("Text = %q, want raw man output", res.Text)
	}
}

func TestDocumentationSubcommandHelp(t *testing.T) {
	t.Run("subcommand help wins", func(t *testing.T) {
		runner := newFakeRunner()
		runner.on("/usr/bin/git commit --help", &ExecResult{Stdout: "GIT-COMMIT(1)\n\nRecord changes to the repository\n"}, nil)
		resolver := &fixedResolver{path: "/usr/bin/git"}
		engine := newTestEngine(t, runner, resolver)

		res, err := engine.Documentation(context.Background(), DocRequest{Command: "git commit file.txt", PreferEconomic: true})
		if err != nil {
			t.Fatalf("Documentation failed: %v", err)
		}

		if !strings.HasPrefix(res.Message(), "Help output for 'git commit':\n\n") {
			t.Errorf("Message = %q", res.Message())
		}
		if runner.calls[0].argv() != "/usr/bin/git commit --help" {
			t.Errorf("First probe = %q, want subcommand help", runner.calls[0].argv())
		}
	})

	t.Run("falls back to main command", func(t *testing.T) {
		runner := newFakeRunner()
		runner.on("/usr/bin/git --help", &ExecResult{Stdout: "usage: git [--version] [--help] <command>\n"}, nil)
		resolver := &fixedResolver{path: "/usr/bin/git"}
		engine := newTestEngine(t, runner, resolver)

		res, err := engine.Documentation(context.Background(), DocRequest{Command: "git frobnicate", PreferEconomic: true})
		if err != nil {
			t.Fatalf("Documentation failed: %v", err)
		}
		if !strings.HasPrefix(res.Message(), "Help output for 'git':\n\n") {
			t.Errorf("Message = %q", res.Message())
		}
	})

	t.Run("option flag is not a subcommand", func(t *testing.T) {
		runner := newFakeRunner()
		runner.on("/usr/bin/ls --help", &ExecResult{Stdout: "Usage: ls [OPTION]...\n"}, nil)
		resolver := &fixedResolver{path: "/usr/bin/ls"}
		engine := newTestEngine(t, runner, resolver)

		res, err := engine.Documentation(context.Background(), DocRequest{Command: "ls -la", PreferEconomic: true})
		if err != nil {
			t.Fatalf("Documentation failed: %v", err)
		}

		if res.Command != "ls" {
			t.Errorf("Command label = %q, want %q", res.Command, "ls")
		}
		if runner.calls[0].argv() != "/usr/bin/ls --help" {
			t.Errorf("First probe = %q, -la must not be treated as a subcommand", runner.calls[0].argv())
		}
	})
}

func TestDocumentationNothingFound(t *testing.T) {
	runner := newFakeRunner() // every probe fails
	resolver := &fixedResolver{path: "/usr/bin/brandnewtool"}
	engine := newTestEngine(t, runner, resolver)

	_, err := engine.Documentation(context.Background(), DocRequest{Command: "brandnewtool --verbose", PreferEconomic: true})

	var noDoc *NoDocumentationError
	if !errors.As(err, &noDoc) {
		t.Fatalf("Expected NoDocumentationError, got %v", err)
	}

	// The message carries the caller's full input, not just the parsed name
	want := "No documentation available for 'brandnewtool --verbose'"
	if got := ErrorMessage(err); got != want {
		t.Errorf("ErrorMessage = %q, want %q", got, want)
	}
}

func TestDocumentationTimeoutDegrades(t *testing.T) {
	// A probe that times out is skipped, not fatal to the whole lookup
	runner := newFakeRunner()
	runner.on("/usr/bin/slow --help", nil, &TimeoutError{Command: "/usr/bin/slow", Timeout: 5 * time.Second})
	runner.on("/usr/bin/slow -h", &ExecResult{Stdout: "usage: slow [opts]\n"}, nil)
	resolver := &fixedResolver{path: "/usr/bin/slow"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Documentation(context.Background(), DocRequest{Command: "slow", PreferEconomic: true})
	if err != nil {
		t.Fatalf("Documentation failed: %v", err)
	}
	if !strings.Contains(res.Text, "usage: slow") {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestCheckExists(t *testing.T) {
	runner := newFakeRunner()
	runner.on("/bin/ls --version", &ExecResult{Stdout: "ls (GNU coreutils) 8.32\n"}, nil)
	resolver := &fixedResolver{path: "/bin/ls"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Check(context.Background(), "ls")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if !res.Exists {
		t.Error("Expected Exists true")
	}
	if res.Path != "/bin/ls" {
		t.Errorf("Path = %q", res.Path)
	}
	if res.Version != "ls (GNU coreutils) 8.32" {
		t.Errorf("Version = %q", res.Version)
	}

	want := "Command 'ls' exists at /bin/ls.\nVersion information: ls (GNU coreutils) 8.32"
	if res.Message() != want {
		t.Errorf("Message = %q, want %q", res.Message(), want)
	}
}

func TestCheckVersionProbeOrder(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]*ExecResult
		want      string
	}{
		{
			name: "-V fallback",
			responses: map[string]*ExecResult{
				"/usr/bin/x --version": {Stderr: "unknown option\n", ExitCode: 2},
				"/usr/bin/x -V":        {Stdout: "x v2.4\n"},
			},
			want: "x v2.4",
		},
		{
			name: "version subcommand fallback",
			responses: map[string]*ExecResult{
				"/usr/bin/x --version": {ExitCode: 2},
				"/usr/bin/x -V":        {ExitCode: 2},
				"/usr/bin/x version":   {Stdout: "x 1.0.0\n"},
			},
			want: "x 1.0.0",
		},
		{
			name:      "no version info",
			responses: map[string]*ExecResult{},
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			for argv, res := range tt.responses {
				runner.on(argv, res, nil)
			}
			resolver := &fixedResolver{path: "/usr/bin/x"}
			engine := newTestEngine(t, runner, resolver)

			res, err := engine.Check(context.Background(), "x")
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if res.Version != tt.want {
				t.Errorf("Version = %q, want %q", res.Version, tt.want)
			}

			if tt.want == "" {
				wantMsg := "Command 'x' exists on this system at /usr/bin/x."
				if res.Message() != wantMsg {
					t.Errorf("Message = %q, want %q", res.Message(), wantMsg)
				}
			}
		})
	}
}

func TestCheckNotFound(t *testing.T) {
	runner := newFakeRunner()
	resolver := &fixedResolver{err: &NotFoundError{Name: "nope"}}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Check(context.Background(), "nope")
	if err != nil {
		t.Fatalf("A missing command is not an error: %v", err)
	}

	if res.Exists {
		t.Error("Expected Exists false")
	}
	want := "Command 'nope' does not exist or is not in the PATH."
	if res.Message() != want {
		t.Errorf("Message = %q, want %q", res.Message(), want)
	}
}

func TestCheckInvalidName(t *testing.T) {
	runner := newFakeRunner()
	resolver := &fixedResolver{path: "/bin/sh"}
	engine := newTestEngine(t, runner, resolver)

	_, err := engine.Check(context.Background(), "foo|bar")

	var invalid *validation.InvalidNameError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidNameError, got %v", err)
	}
	if got := ErrorMessage(err); got != "Invalid command name: 'foo|bar'" {
		t.Errorf("ErrorMessage = %q", got)
	}
	if len(runner.calls) != 0 {
		t.Errorf("Expected no subprocess calls, got %d", len(runner.calls))
	}
}

func TestCheckStripsArguments(t *testing.T) {
	runner := newFakeRunner()
	resolver := &fixedResolver{path: "/bin/ls"}
	engine := newTestEngine(t, runner, resolver)

	res, err := engine.Check(context.Background(), "ls -la /tmp")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if res.Name != "ls" {
		t.Errorf("Name = %q, want %q", res.Name, "ls")
	}
	if len(resolver.names) != 1 || resolver.names[0] != "ls" {
		t.Errorf("Resolved names = %v, want [ls]", resolver.names)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	t.Run("shell from environment", func(t *testing.T) {
		t.Setenv("SHELL", "/bin/bash")
		opts := Options{}.withDefaults()
		if opts.Shell != "/bin/bash" {
			t.Errorf("Shell = %q, want /bin/bash", opts.Shell)
		}
	})

	t.Run("builtin shell fallback", func(t *testing.T) {
		t.Setenv("SHELL", "")
		opts := Options{}.withDefaults()
		if opts.Shell != DefaultShell {
			t.Errorf("Shell = %q, want %q", opts.Shell, DefaultShell)
		}
	})

	t.Run("zero timeouts filled", func(t *testing.T) {
		opts := Options{}.withDefaults()
		if opts.HelpTimeout != DefaultHelpTimeout {
			t.Errorf("HelpTimeout = %v", opts.HelpTimeout)
		}
		if opts.ManTimeout != DefaultManTimeout {
			t.Errorf("ManTimeout = %v", opts.ManTimeout)
		}
		if opts.ResolveTimeout != DefaultResolveTimeout {
			t.Errorf("ResolveTimeout = %v", opts.ResolveTimeout)
		}
	})

	t.Run("explicit values kept", func(t *testing.T) {
		opts := Options{
			Shell:          "/usr/bin/fish",
			HelpTimeout:    time.Second,
			ManTimeout:     2 * time.Second,
			ResolveTimeout: 3 * time.Second,
		}.withDefaults()
		if opts.Shell != "/usr/bin/fish" || opts.HelpTimeout != time.Second ||
			opts.ManTimeout != 2*time.Second || opts.ResolveTimeout != 3*time.Second {
			t.Errorf("Options changed: %+v", opts)
		}
	})
}

func TestErrorMessagePassthrough(t *testing.T) {
	err := errors.New("keyring locked")
	if got := ErrorMessage(err); got != "keyring locked" {
		t.Errorf("ErrorMessage = %q, want passthrough", got)
	}
}
