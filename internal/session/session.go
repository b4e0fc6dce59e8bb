// Package session ties a sort configuration to the images it applies to and
// to the controller that runs the sorter, for the lifetime of one
// interactive session.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sortlaunch/internal/image"
	"github.com/jmylchreest/sortlaunch/internal/invoke"
	"github.com/jmylchreest/sortlaunch/internal/sortconfig"
)

// Session is the single owner of a Model. Field updates, source and mask
// selection, and runs all go through it.
type Session struct {
	model      *sortconfig.Model
	source     string
	controller *invoke.Controller
	logger     hclog.Logger

	wg      sync.WaitGroup
	pending atomic.Bool

	mu     sync.Mutex
	cancel context.CancelCauseFunc // cancels the run begun by Start
}

// New creates a session with a default model.
func New(controller *invoke.Controller, logger hclog.Logger) *Session {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Session{
		model:      sortconfig.New(),
		controller: controller,
		logger:     logger.Named("session"),
	}
}

// Model returns the session's configuration. Callers must not mutate it
// while Start is running; Start works on a copy.
func (s *Session) Model() *sortconfig.Model {
	return s.model
}

// Source returns the selected source image, or "" if none.
func (s *Session) Source() string {
	return s.source
}

// SetSource validates path and selects it as the source image.
func (s *Session) SetSource(path string) error {
	abs, err := image.ResolveImagePath(path)
	if err != nil {
		return fmt.Errorf("invalid source image: %w", err)
	}
	s.source = abs
	s.logger.Debug("source selected", "path", abs)
	return nil
}

// SetMask validates path and selects it as the mask.
func (s *Session) SetMask(path string) error {
	abs, err := image.ResolveImagePath(path)
	if err != nil {
		return fmt.Errorf("invalid mask image: %w", err)
	}
	s.model.SetMaskPath(abs)
	s.logger.Debug("mask selected", "path", abs)
	return nil
}

// ClearMask removes the mask.
func (s *Session) ClearMask() {
	s.model.ClearMask()
}

// Set applies raw user input to field. Rejected input leaves the model
// unchanged and is only logged.
func (s *Session) Set(field sortconfig.Field, raw string) (bool, error) {
	if field == sortconfig.FieldMask {
		if raw == "" || strings.EqualFold(raw, "none") {
			s.ClearMask()
			return true, nil
		}
		if err := s.SetMask(raw); err != nil {
			return false, err
		}
		return true, nil
	}

	accepted, err := s.model.Set(field, raw)
	if err != nil {
		return false, err
	}
	if !accepted {
		s.logger.Info("input rejected, keeping previous value", "field", field, "input", raw, "value", s.model.Get(field))
	}
	return accepted, nil
}

// Arguments renders the current configuration against the source image.
func (s *Session) Arguments() ([]string, error) {
	if s.source == "" {
		return nil, invoke.ErrNoSource
	}
	return s.model.ToArguments(s.source), nil
}

// Run invokes the sorter and waits for it.
func (s *Session) Run(ctx context.Context) (*invoke.Result, error) {
	if s.source == "" {
		return nil, invoke.ErrNoSource
	}
	return s.controller.Run(ctx, s.model, s.source)
}

// Start invokes the sorter in the background with a snapshot of the current
// configuration and calls done with the outcome. A second Start while one is
// outstanding returns invoke.ErrInvocationInProgress.
func (s *Session) Start(ctx context.Context, done func(*invoke.Result, error)) error {
	if s.source == "" {
		return invoke.ErrNoSource
	}
	if s.controller.Running() || !s.pending.CompareAndSwap(false, true) {
		return invoke.ErrInvocationInProgress
	}

	snapshot := s.model.Clone()
	source := s.source

	// The cancel is recorded before Start returns so that a Cancel issued
	// before the controller has picked up the run still stops it.
	runCtx, cancel := context.WithCancelCause(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.controller.Run(runCtx, snapshot, source)

		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel(nil)
		s.pending.Store(false)

		if done != nil {
			done(result, err)
		}
	}()
	return nil
}

// Running reports whether a sorter run is in flight.
func (s *Session) Running() bool {
	return s.pending.Load() || s.controller.Running()
}

// Cancel terminates the in-flight run, if any, including one begun by Start
// that has not reached the sorter yet.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(invoke.ErrCancelled)
	}
	s.mu.Unlock()
	s.controller.Cancel()
}

// Wait blocks until every run started with Start has completed.
func (s *Session) Wait() {
	s.wg.Wait()
}
