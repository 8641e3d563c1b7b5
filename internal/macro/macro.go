// Package macro records and replays ordered (intent, params) executions.
package macro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/pkg/schema"
)

// DefaultDelay is the pause between two played entries
const DefaultDelay = 500 * time.Millisecond

var (
	ErrRecordingInProgress = errors.New("macro: recording in progress")
	ErrInvalidMacro        = errors.New("macro: invalid macro file")
)

// Executor runs one intent through the execution boundary
type Executor interface {
	Execute(ctx context.Context, intent string, params map[string]string) error
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, intent string, params map[string]string) error

func (f ExecutorFunc) Execute(ctx context.Context, intent string, params map[string]string) error {
	return f(ctx, intent, params)
}

// Clock is the time source of a Sequencer
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// PlaybackError reports the entry that stopped a playback
type PlaybackError struct {
	Index  int
	Intent string
	Err    error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("macro: entry %d (%s) failed: %v", e.Index+1, e.Intent, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Sequencer is the Idle/Recording state machine plus the player
type Sequencer struct {
	exec   Executor
	logger *zap.Logger
	clock  Clock

	// Delay between entries during Play
	Delay time.Duration

	mu        sync.Mutex
	recording bool
	buf       schema.Macro
}

// Option configures a Sequencer
type Option func(*Sequencer)

// WithDelay overrides DefaultDelay
func WithDelay(d time.Duration) Option {
	return func(s *Sequencer) { s.Delay = d }
}

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// New creates an idle sequencer that plays through exec
func New(exec Executor, logger *zap.Logger, opts ...Option) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sequencer{exec: exec, logger: logger, clock: realClock{}, Delay: DefaultDelay}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new recording. It is a no-op while already recording.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		s.logger.Debug("macro recording already active")
		return
	}
	s.recording = true
	s.buf = nil
	s.logger.Info("macro recording started")
}

// Stop ends the recording. It is a no-op while idle.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	s.recording = false
	s.logger.Info("macro recording stopped", zap.Int("entries", len(s.buf)))
}

// Recording reports the current state
func (s *Sequencer) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Record appends an execution while recording; otherwise it does nothing
func (s *Sequencer) Record(intent string, params map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return
	}
	now := s.clock.Now()
	s.buf = append(s.buf, schema.MacroEntry{
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
		Intent:    intent,
		Params:    copyParams(params),
	})
	s.logger.Debug("macro entry recorded", zap.String("intent", intent))
}

// Entries returns a copy of the recorded entries
func (s *Sequencer) Entries() schema.Macro {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(schema.Macro, len(s.buf))
	for i, e := range s.buf {
		e.Params = copyParams(e.Params)
		out[i] = e
	}
	return out
}

// Play executes entries strictly in order. The first failure aborts the
// remaining entries and is returned as *PlaybackError.
func (s *Sequencer) Play(ctx context.Context, m schema.Macro) error {
	if s.Recording() {
		return ErrRecordingInProgress
	}

	s.logger.Info("macro playback started", zap.Int("entries", len(m)))
	for i, entry := range m {
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				return &PlaybackError{Index: i, Intent: entry.Intent, Err: ctx.Err()}
			case <-s.clock.After(s.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return &PlaybackError{Index: i, Intent: entry.Intent, Err: err}
		}

		s.logger.Info("macro entry",
			zap.Int("index", i+1),
			zap.Int("total", len(m)),
			zap.String("intent", entry.Intent))
		if err := s.exec.Execute(ctx, entry.Intent, copyParams(entry.Params)); err != nil {
			s.logger.Error("macro entry failed, aborting playback",
				zap.Int("index", i+1),
				zap.String("intent", entry.Intent),
				zap.Error(err))
			return &PlaybackError{Index: i, Intent: entry.Intent, Err: err}
		}
	}
	s.logger.Info("macro playback finished")
	return nil
}

// Save writes the recorded entries to path
func (s *Sequencer) Save(path string) error {
	if s.Recording() {
		return ErrRecordingInProgress
	}
	return WriteFile(path, s.Entries())
}

func copyParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
