package manual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"unixman/internal/logging"
)

// ExecResult captures a finished subprocess. A non-zero exit is not an
// error: documentation probes routinely interrogate commands that exit 1.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes one subprocess and waits for it. Implementations must
// never invoke a shell; argv is passed to the OS as given.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*ExecResult, error)

	// RunInput is Run with data piped to the child's stdin.
	RunInput(ctx context.Context, timeout time.Duration, input, name string, args ...string) (*ExecResult, error)
}

// TimeoutError reports a subprocess that exceeded its deadline and was
// killed.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// execRunner runs subprocesses through os/exec with a per-call deadline.
type execRunner struct {
	log *logging.AppLogger
}

func newExecRunner(logger *logging.AppLogger) *execRunner {
	return &execRunner{log: logger}
}

func (r *execRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*ExecResult, error) {
	return r.run(ctx, timeout, "", name, args...)
}

func (r *execRunner) RunInput(ctx context.Context, timeout time.Duration, input, name string, args ...string) (*ExecResult, error) {
	return r.run(ctx, timeout, input, name, args...)
}

func (r *execRunner) run(ctx context.Context, timeout time.Duration, input, name string, args ...string) (*ExecResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	r.log.Debug("Executing command", "name", name, "args", args, "timeout", timeout)

	err := cmd.Run()

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			r.log.Warn("Command timed out", "name", name, "timeout", timeout)
			return nil, &TimeoutError{Command: name, Timeout: timeout}
		}
		return nil, ctxErr
	}

	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			r.log.Error("Command execution failed", "name", name, "error", err)
			return nil, err
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.log.Debug("Command finished", "name", name, "exit_code", result.ExitCode)
	return result, nil
}
