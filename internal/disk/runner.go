package disk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned by a CommandRunner when the command did not finish
// within its time budget. Probes treat it as an inconclusive result.
var ErrTimeout = errors.New("command timed out")

// CommandRunner executes an external command with a hard timeout and captures
// its standard output. Probes depend on this narrow capability so they can be
// tested without spawning real subprocesses.
type CommandRunner interface {
	// Run executes name with args, waiting at most timeout. It returns the
	// command's exit code and captured stdout. A non-nil error indicates the
	// command could not be run to completion (missing binary, spawn failure,
	// timeout); exitCode is only meaningful when err is nil.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (exitCode int, stdout string, err error)
}

// Compile-time interface check.
var _ CommandRunner = ExecRunner{}

// ExecRunner runs commands via os/exec. The timeout is enforced through the
// command's context, so a hung subprocess is killed rather than waited on
// indefinitely.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (int, string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return 0, "", fmt.Errorf("run %s: %w", name, ErrTimeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The command ran and exited non-zero; report the code.
			return exitErr.ExitCode(), out.String(), nil
		}
		return 0, "", fmt.Errorf("run %s: %w", name, err)
	}
	return 0, out.String(), nil
}
