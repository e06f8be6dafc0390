package mgrep

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jingkaihe/mgrep-hook/pkg/osutil"
	"github.com/pkg/errors"
)

// ErrUnavailable is wrapped by every Runner failure, including timeouts and
// non-zero exits.
var ErrUnavailable = errors.New("mgrep unavailable")

// DefaultTimeout is used when a runner is created without a positive timeout.
const DefaultTimeout = 25 * time.Second

// Runner executes an mgrep command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner returns a runner that abandons a command after timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{timeout: timeout}
}

// Timeout returns the per-command time limit.
func (r *ExecRunner) Timeout() time.Duration {
	return r.timeout
}

// Run executes cmd in cmd.Dir. The whole process group is killed when the
// timeout expires. Stderr is only used to describe failures.
func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	if len(c.Args) == 0 {
		return "", errors.Wrap(ErrUnavailable, "empty command")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	osutil.SetProcessGroup(cmd)
	osutil.SetProcessGroupKill(cmd)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrapf(ErrUnavailable, "mgrep timed out after %s", r.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return "", errors.Wrapf(ErrUnavailable, "mgrep execution failed: %s", err)
	}

	return normalizeNewlines(stdout.String()), nil
}

// ExitError reports a non-zero mgrep exit.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("mgrep exited with %d", e.Code)
	}
	return fmt.Sprintf("mgrep exited with %d: %s", e.Code, e.Stderr)
}

// Unwrap makes errors.Is(err, ErrUnavailable) hold for exit failures.
func (e *ExitError) Unwrap() error {
	return ErrUnavailable
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
