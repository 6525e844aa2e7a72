package manual

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"unixman/internal/logging"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func newTestRunner(t *testing.T) *execRunner {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	return newExecRunner(logger)
}

func TestRunnerCapturesOutput(t *testing.T) {
	requireTool(t, "sh")
	runner := newTestRunner(t)

	res, err := runner.Run(context.Background(), 5*time.Second, "sh", "-c", "printf out; printf err >&2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Stdout != "out" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "out")
	}
	if res.Stderr != "err" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "err")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunnerNonZeroExitIsNotAnError(t *testing.T) {
	requireTool(t, "sh")
	runner := newTestRunner(t)

	res, err := runner.Run(context.Background(), 5*time.Second, "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestRunnerTimeout(t *testing.T) {
	requireTool(t, "sh")
	runner := newTestRunner(t)

	start := time.Now()
	_, err := runner.Run(context.Background(), 50*time.Millisecond, "sh", "-c", "sleep 5")
	elapsed := time.Since(start)

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if timeout.Timeout != 50*time.Millisecond {
		t.Errorf("Timeout = %v, want 50ms", timeout.Timeout)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Timed-out command held the caller for %v", elapsed)
	}
}

func TestRunnerMissingBinary(t *testing.T) {
	runner := newTestRunner(t)

	_, err := runner.Run(context.Background(), time.Second, "/nonexistent/unixman-test-binary")
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}

	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		t.Errorf("Missing binary misreported as timeout: %v", err)
	}
}

func TestRunnerPipesInput(t *testing.T) {
	requireTool(t, "sh")
	requireTool(t, "cat")
	runner := newTestRunner(t)

	res, err := runner.RunInput(context.Background(), 5*time.Second, "piped content\n", "sh", "-c", "cat")
	if err != nil {
		t.Fatalf("RunInput failed: %v", err)
	}
	if res.Stdout != "piped content\n" {
		t.Errorf("Stdout = %q, want piped content back", res.Stdout)
	}
}

func TestRunnerContextCancellation(t *testing.T) {
	requireTool(t, "sh")
	runner := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, 5*time.Second, "sh", "-c", "sleep 1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
