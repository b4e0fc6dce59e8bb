package invoke

import (
	"context"
	"os/exec"
	"sync"
)

// MockProcessRunner is a mock implementation of ProcessRunner for testing.
type MockProcessRunner struct {
	// RunFunc allows tests to provide custom behavior
	RunFunc func(ctx context.Context, name string, args []string) (Output, error)

	// ShouldBlock if true, will block until context is cancelled
	ShouldBlock bool

	// Started, if set, receives a value once Run has been entered.
	Started chan struct{}

	mu       sync.Mutex
	calls    int
	lastName string
	lastArgs []string
}

// Run executes the mock behavior.
func (m *MockProcessRunner) Run(ctx context.Context, name string, args []string) (Output, error) {
	m.mu.Lock()
	m.calls++
	m.lastName = name
	m.lastArgs = append([]string(nil), args...)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- struct{}{}
	}

	if m.ShouldBlock {
		<-ctx.Done()
		return Output{ExitCode: -1}, ctx.Err()
	}

	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args)
	}

	return Output{}, nil
}

// CallCount returns how many times Run was called.
func (m *MockProcessRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCall returns the name and args of the most recent Run.
func (m *MockProcessRunner) LastCall() (string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastName, m.lastArgs
}

// NewMockProcessRunner creates a new mock process runner.
func NewMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{}
}

// NewBlockingMockProcessRunner creates a mock that runs until cancelled.
func NewBlockingMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{
		ShouldBlock: true,
		Started:     make(chan struct{}, 1),
	}
}

// NewExitMockProcessRunner creates a mock whose process exits with code and stderr.
func NewExitMockProcessRunner(code int, stderr string) *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (Output, error) {
			return Output{ExitCode: code, Stderr: []byte(stderr)}, nil
		},
	}
}

// NewMissingMockProcessRunner creates a mock for an executable that is not on PATH.
func NewMissingMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (Output, error) {
			return Output{}, &exec.Error{Name: name, Err: exec.ErrNotFound}
		},
	}
}

// NewSuccessMockProcessRunner creates a mock that exits cleanly with stdout.
func NewSuccessMockProcessRunner(stdout []byte) *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(ctx context.Context, name string, args []string) (Output, error) {
			return Output{Stdout: stdout}, nil
		},
	}
}
