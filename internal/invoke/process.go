package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Output is what a finished child process left behind.
type Output struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ProcessRunner defines an interface for running external processes.
// This abstraction allows for dependency injection and easier testing.
type ProcessRunner interface {
	// Run executes name with args and waits for it to exit. A non-zero exit
	// is reported through Output.ExitCode, not as an error; the error is
	// reserved for failing to start the process or for ctx ending first.
	Run(ctx context.Context, name string, args []string) (Output, error)
}

// RealProcessRunner implements ProcessRunner using actual os/exec commands.
type RealProcessRunner struct {
	// GracePeriod is how long a process may take to exit after the
	// termination signal before it is killed. Zero means DefaultGracePeriod;
	// a child that ignores the signal is never waited on indefinitely.
	GracePeriod time.Duration
}

// NewRealProcessRunner creates a new real process runner.
func NewRealProcessRunner(grace time.Duration) *RealProcessRunner {
	return &RealProcessRunner{GracePeriod: grace}
}

// Run executes a real external process.
func (r *RealProcessRunner) Run(ctx context.Context, name string, args []string) (Output, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return Output{}, err
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = r.GracePeriod
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultGracePeriod
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	out := Output{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	if err != nil {
		exitErr := &exec.ExitError{}
		if errors.As(err, &exitErr) {
			return out, nil
		}
		return out, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return out, nil
}
