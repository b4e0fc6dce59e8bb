// Package invoke runs the external pixel sorter with the arguments rendered
// from a sort configuration and classifies how the run ended.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sortlaunch/internal/sortconfig"
)

// Result describes a finished sorter run.
type Result struct {
	Args     []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Controller invokes the sorter on behalf of one session. At most one
// invocation is in flight at a time; further requests are rejected with
// ErrInvocationInProgress until it resolves.
type Controller struct {
	config Config
	runner ProcessRunner
	logger hclog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelCauseFunc
}

// Config returns the controller's effective settings.
func (c *Controller) Config() Config {
	return c.config
}

// Running reports whether an invocation is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Cancel asks the in-flight sorter to terminate. Run returns ErrCancelled
// once the process has exited. It is a no-op when nothing is running.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel(ErrCancelled)
	}
}

// Run renders model against sourcePath, runs the sorter and waits for it.
// The returned Result is non-nil whenever a process was started, including
// when it failed. A ctx that is already done yields ErrCancelled or
// ErrTimeout without starting anything.
func (c *Controller) Run(ctx context.Context, model *sortconfig.Model, sourcePath string) (*Result, error) {
	if sourcePath == "" {
		return nil, ErrNoSource
	}

	runCtx, release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if runCtx.Err() != nil {
		// Cancelled or expired before the sorter could be started.
		return nil, c.classify(runCtx, runCtx.Err())
	}

	args := model.ToArguments(sourcePath)
	c.logger.Debug("starting sorter", "executable", c.config.Executable, "args", args)

	start := time.Now()
	out, err := c.runner.Run(runCtx, c.config.Executable, args)
	result := &Result{
		Args:     args,
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Duration: time.Since(start),
	}

	if err != nil {
		err = c.classify(runCtx, err)
		c.logger.Warn("sorter did not complete", "error", err, "elapsed", result.Duration)
		if errors.Is(err, ErrExecutableNotFound) {
			return nil, err
		}
		return result, err
	}

	if out.ExitCode != 0 {
		failure := &ExternalFailureError{ExitCode: out.ExitCode, Stderr: string(out.Stderr)}
		c.logger.Warn("sorter failed", "exit_code", out.ExitCode, "elapsed", result.Duration)
		return result, failure
	}

	c.logger.Info("sorter finished", "source", sourcePath, "elapsed", result.Duration.Truncate(time.Millisecond))
	return result, nil
}

// acquire marks the controller busy and derives the context for one run.
func (c *Controller) acquire(ctx context.Context) (context.Context, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil, nil, ErrInvocationInProgress
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	stop := func() {}
	if c.config.Timeout > 0 {
		var stopTimer context.CancelFunc
		runCtx, stopTimer = context.WithTimeoutCause(runCtx, c.config.Timeout, ErrTimeout)
		stop = stopTimer
	}

	c.running = true
	c.cancel = cancel

	release := func() {
		stop()
		cancel(nil)
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
	}
	return runCtx, release, nil
}

func (c *Controller) classify(runCtx context.Context, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrExecutableNotFound, c.config.Executable)
	}

	if runCtx.Err() != nil {
		cause := context.Cause(runCtx)
		switch {
		case errors.Is(cause, ErrTimeout), errors.Is(cause, context.DeadlineExceeded):
			return fmt.Errorf("%w after %s", ErrTimeout, c.config.Timeout)
		default:
			return ErrCancelled
		}
	}

	return fmt.Errorf("failed to invoke sorter: %w", err)
}
