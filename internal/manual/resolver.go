package manual

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"unixman/internal/logging"
)

// Resolver turns a command name into its absolute path.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// shellResolver resolves names through the user's login shell so aliases,
// version managers, and PATH entries from shell startup files are all
// honored. The name is interpolated into a shell command line, so callers
// must validate it first.
type shellResolver struct {
	shell   string
	timeout time.Duration
	runner  Runner
	log     *logging.AppLogger
}

func newShellResolver(shell string, timeout time.Duration, runner Runner, logger *logging.AppLogger) *shellResolver {
	return &shellResolver{
		shell:   shell,
		timeout: timeout,
		runner:  runner,
		log:     logger,
	}
}

var absolutePathPattern = regexp.MustCompile(`^/`)

func (r *shellResolver) Resolve(ctx context.Context, name string) (string, error) {
	r.log.Debug("Searching for command path", "command", name, "shell", r.shell)

	lookup := fmt.Sprintf("command -v %s 2>/dev/null", name)
	res, err := r.runner.Run(ctx, r.timeout, r.shell, "-l", "-c", lookup)
	if err != nil {
		// A missing or hanging login shell must not take resolution down
		// with it. PATH lookup still answers the common case.
		r.log.Warn("Shell resolution failed, falling back to PATH lookup",
			"command", name, "shell", r.shell, "error", err)
		return r.lookPath(name)
	}

	// Login shells can print banners before the answer; the path is the
	// first line that looks like one.
	for _, line := range strings.Split(res.Stdout, "\n") {
		if absolutePathPattern.MatchString(line) {
			path := strings.TrimSpace(line)
			r.log.Debug("Found command path", "command", name, "path", path)
			return path, nil
		}
	}

	r.log.Warn("Command not found", "command", name)
	return "", &NotFoundError{Name: name}
}

func (r *shellResolver) lookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &NotFoundError{Name: name}
	}
	r.log.Debug("Found command path", "command", name, "path", path)
	return path, nil
}
