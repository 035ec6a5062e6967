package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// DefaultTimeout bounds a single helper invocation.
const DefaultTimeout = 10 * time.Second

// waitDelay bounds how long a killed helper's children may hold its pipes.
const waitDelay = time.Second

// maxStderr is how much helper stderr is kept for error messages.
const maxStderr = 512

// Runner invokes helper executables.
type Runner struct {
	timeout time.Duration
}

// NewRunner creates a runner. Non-positive timeouts use DefaultTimeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout}
}

// Run executes argv with extra arguments appended, feeding stdin, and
// returns stdout.
func (r *Runner) Run(ctx context.Context, argv []string, stdin []byte, args ...string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, domain.ErrNotImplemented
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full := append(append([]string(nil), argv[1:]...), args...)
	cmd := exec.CommandContext(ctx, argv[0], full...)
	cmd.WaitDelay = waitDelay
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: timed out after %s", argv[0], r.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr]
		}
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", argv[0], err)
	}
	return stdout.Bytes(), nil
}
