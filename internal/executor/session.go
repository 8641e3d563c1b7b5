package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusy is returned by Start while a previous execution is still running.
var ErrBusy = errors.New("an execution is already in progress")

// Execer is the execution boundary consumed by Session.
type Execer interface {
	Execute(ctx context.Context, intent string, params map[string]string, out func(string)) error
}

// Session allows at most one execution in flight.
type Session struct {
	exec   Execer
	logger *zap.Logger

	mu      sync.Mutex
	current string
}

// NewSession wraps an Execer.
func NewSession(exec Execer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{exec: exec, logger: logger}
}

// Busy reports whether an execution is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != ""
}

// Start runs the intent asynchronously and returns its run id. done, if not
// nil, receives the result after the session is free again.
func (s *Session) Start(ctx context.Context, intent string, params map[string]string, out func(string), done func(error)) (string, error) {
	s.mu.Lock()
	if s.current != "" {
		s.mu.Unlock()
		return "", ErrBusy
	}
	id := uuid.NewString()
	s.current = id
	s.mu.Unlock()

	log := s.logger.With(zap.String("run", id), zap.String("intent", intent))
	log.Debug("execution started")

	go func() {
		err := s.exec.Execute(ctx, intent, params, out)

		s.mu.Lock()
		s.current = ""
		s.mu.Unlock()

		if err != nil {
			log.Warn("execution failed", zap.Error(err))
		} else {
			log.Debug("execution finished")
		}
		if done != nil {
			done(err)
		}
	}()
	return id, nil
}

// Run starts the intent and blocks until it finishes.
func (s *Session) Run(ctx context.Context, intent string, params map[string]string, out func(string)) error {
	result := make(chan error, 1)
	if _, err := s.Start(ctx, intent, params, out, func(err error) { result <- err }); err != nil {
		return err
	}
	return <-result
}
