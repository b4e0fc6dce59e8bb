package invoke

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSource is returned when Run is called without a source image.
	ErrNoSource = errors.New("no source image selected")

	// ErrExecutableNotFound is returned when the sorter binary cannot be located.
	ErrExecutableNotFound = errors.New("sorter executable not found")

	// ErrInvocationInProgress is returned when a run is requested while
	// another one on the same controller has not finished.
	ErrInvocationInProgress = errors.New("an invocation is already in progress")

	// ErrTimeout is returned when the sorter outlives the configured timeout.
	ErrTimeout = errors.New("sorter timed out")

	// ErrCancelled is returned when a run is cancelled before the sorter exits.
	ErrCancelled = errors.New("invocation cancelled")
)

// ExternalFailureError reports a sorter that exited with a non-zero status.
type ExternalFailureError struct {
	ExitCode int
	Stderr   string
}

func (e *ExternalFailureError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("sorter exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("sorter exited with code %d: %s", e.ExitCode, msg)
}
