// Package autosave persists dirty note collections in the background.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/core"
)

const (
	// DefaultInterval is the time between autosave ticks.
	DefaultInterval = 2 * time.Second
	// DefaultMaxFailures is the number of consecutive failed saves after which
	// a *core.SaveFailureError is surfaced.
	DefaultMaxFailures = 3
	// DefaultReason is the change reason attached to autosaves.
	DefaultReason = "docs(notes): autosave"
)

// Phase is the state of the save cycle.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseDirty  Phase = "dirty"
	PhaseSaving Phase = "saving"
)

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("autosave scheduler already started")

// Source is the collection being persisted. *core.Service implements it.
type Source interface {
	Snapshot() core.Snapshot
	MarkSaved(generation uint64)
	Dirty() bool
}

// Config holds the scheduler settings. Zero values select the defaults.
type Config struct {
	Interval    time.Duration
	MaxFailures int
	Reason      string
	Logger      *slog.Logger
	// OnFailure is called once each time the consecutive failure count
	// reaches MaxFailures.
	OnFailure func(*core.SaveFailureError)
}

// Scheduler saves the source to the store whenever it is dirty.
type Scheduler struct {
	source Source
	store  core.Store
	config Config

	saveMu sync.Mutex // one save in flight; ticks that find it held are coalesced

	mu       sync.Mutex
	phase    Phase
	failures int
	err      *core.SaveFailureError
	saves    int
	lastSave *time.Time
	lastErr  error
	loop     *tickWorker
}

// New creates a scheduler. It does not tick until Start is called.
func New(source Source, store core.Store, config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultMaxFailures
	}
	if config.Reason == "" {
		config.Reason = DefaultReason
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		source: source,
		store:  store,
		config: config,
		phase:  PhaseIdle,
	}
}

// Start runs the tick loop in the background until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.loop != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.loop = newTickWorker(s)
	loop := s.loop
	s.mu.Unlock()

	return loop.Start(ctx)
}

// Stop halts the tick loop and performs a final Flush.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()

	var stopErr error
	if loop != nil {
		stopErr = loop.Stop(ctx)
	}
	if err := s.Flush(ctx); err != nil {
		return err
	}
	return stopErr
}

// Tick saves when the source is dirty. A tick that finds a save in flight
// returns immediately, since that save already carries its changes.
func (s *Scheduler) Tick(ctx context.Context) error {
	if !s.saveMu.TryLock() {
		s.config.Logger.Debug("autosave coalesced")
		return nil
	}
	defer s.saveMu.Unlock()
	return s.save(ctx)
}

// Flush waits for any save in flight and then persists pending changes.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.save(ctx)
}

// Phase returns the current phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle && s.source.Dirty() {
		return PhaseDirty
	}
	return s.phase
}

// Err returns the surfaced failure, if the last MaxFailures or more saves
// all failed. It is cleared by the next successful save.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// save must be called with saveMu held.
func (s *Scheduler) save(ctx context.Context) error {
	if !s.source.Dirty() {
		s.setPhase(PhaseIdle)
		return nil
	}

	snap := s.source.Snapshot()
	s.setPhase(PhaseSaving)

	if _, ok := ctx.Value(core.ChangeReasonKey).(string); !ok {
		ctx = context.WithValue(ctx, core.ChangeReasonKey, s.config.Reason)
	}
	err := s.store.Save(ctx, snap.Notes)
	if err != nil {
		return s.failed(err)
	}

	s.source.MarkSaved(snap.Generation)

	s.mu.Lock()
	now := time.Now()
	s.saves++
	s.lastSave = &now
	s.failures = 0
	s.err = nil
	s.lastErr = nil
	s.mu.Unlock()

	// Changes made while writing leave the source dirty for the next tick.
	if s.source.Dirty() {
		s.setPhase(PhaseDirty)
	} else {
		s.setPhase(PhaseIdle)
	}
	s.config.Logger.Debug("autosave complete", "generation", snap.Generation, "notes", len(snap.Notes))
	return nil
}

func (s *Scheduler) failed(err error) error {
	s.mu.Lock()
	s.phase = PhaseDirty
	s.failures++
	s.lastErr = err
	failures := s.failures
	var surfaced *core.SaveFailureError
	if failures >= s.config.MaxFailures {
		surfaced = &core.SaveFailureError{Attempts: failures, Err: err}
		s.err = surfaced
	}
	s.mu.Unlock()

	s.config.Logger.Error("autosave failed", "error", err, "consecutive_failures", failures)
	if surfaced == nil {
		return fmt.Errorf("autosave attempt %d: %w", failures, err)
	}
	if failures == s.config.MaxFailures && s.config.OnFailure != nil {
		s.config.OnFailure(surfaced)
	}
	return surfaced
}

func (s *Scheduler) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}
