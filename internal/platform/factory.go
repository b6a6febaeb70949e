package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"

	arborlifecycle "github.com/aretw0/arbor/pkg/adapters/lifecycle"
	"github.com/aretw0/arbor/pkg/autosave"
	"github.com/aretw0/arbor/pkg/core"
)

// Notebook wires a note collection to its store and autosave scheduler.
type Notebook struct {
	Path      string
	Service   *core.Service
	Store     core.Store
	Scheduler *autosave.Scheduler

	logger   *slog.Logger
	events   chan core.Event
	cancel   context.CancelFunc
	warnings []string

	mu     sync.Mutex
	closed bool
}

// Open loads the notes at path and starts autosaving them.
// The path argument is adapter-specific (a JSON/YAML file for "fs", a database file for "sqlite").
//
// A corrupt store does not fail Open: the damaged file is preserved, the
// notebook starts empty and the problem is reported by Warnings.
func Open(path string, opts ...Option) (*Notebook, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	useTemp := o.forceTemp || (o.devSafety && IsDevRun())
	resolved := ResolveNotesPath(path, useTemp)
	if useTemp && resolved != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}

	ctx, cancel := context.WithCancel(context.Background())
	nb := &Notebook{Path: resolved, logger: o.logger, cancel: cancel}

	store, err := openStore(ctx, resolved, o)
	if err != nil {
		cancel()
		return nil, err
	}
	nb.Store = store

	notes, err := nb.load(ctx)
	if err != nil {
		cancel()
		closeStore(store)
		return nil, err
	}

	svcOpts := []core.ServiceOption{core.WithLogger(o.logger)}
	if o.clock != nil {
		svcOpts = append(svcOpts, core.WithClock(o.clock))
	}
	if o.newID != nil {
		svcOpts = append(svcOpts, core.WithIDGenerator(o.newID))
	}
	if o.eventBuffer > 0 {
		nb.events = make(chan core.Event, o.eventBuffer)
		svcOpts = append(svcOpts, core.WithEventSink(nb.events))
	}
	nb.Service = core.NewService(notes, svcOpts...)
	for _, issue := range nb.Service.Issues() {
		nb.warnings = append(nb.warnings, "repaired: "+issue.String())
	}

	nb.Scheduler = autosave.New(nb.Service, store, autosave.Config{
		Interval:    o.interval,
		MaxFailures: o.maxFailures,
		Logger:      o.logger,
		OnFailure:   o.onSaveFailure,
	})
	if o.autosave {
		if err := nb.Scheduler.Start(ctx); err != nil {
			cancel()
			closeStore(store)
			return nil, fmt.Errorf("failed to start autosave: %w", err)
		}
	}

	if o.watch {
		if err := nb.watch(ctx); err != nil {
			o.logger.Warn("external change watcher unavailable", "error", err)
			nb.warnings = append(nb.warnings, fmt.Sprintf("watcher unavailable: %v", err))
		}
	}

	o.logger.Debug("notebook opened", "path", resolved, "notes", nb.Service.Len())
	return nb, nil
}

// load reads the store, falling back to an empty collection when it is corrupt.
func (nb *Notebook) load(ctx context.Context) ([]core.Note, error) {
	notes, err := nb.Store.Load(ctx)
	if err == nil {
		return notes, nb.reportSkipped(ctx)
	}

	var corrupt *core.CorruptStoreError
	if !errors.As(err, &corrupt) {
		return nil, err
	}

	warning := fmt.Sprintf("notes store %s is corrupt (%v); starting empty", nb.Path, corrupt.Err)
	if p, ok := nb.Store.(core.Preserver); ok {
		backup, perr := p.Preserve(ctx)
		if perr != nil {
			return nil, fmt.Errorf("failed to preserve corrupt store: %w", perr)
		}
		if backup != "" {
			warning += "; original kept at " + backup
		}
	}
	nb.logger.Warn("corrupt notes store", "path", nb.Path, "error", corrupt.Err)
	nb.warnings = append(nb.warnings, warning)
	return nil, nil
}

// reportSkipped turns records the store could not decode into warnings and
// keeps a copy of the file, since the next save no longer contains them.
func (nb *Notebook) reportSkipped(ctx context.Context) error {
	skipped := skippedRecords(nb.Store)
	if len(skipped) == 0 {
		return nil
	}
	for _, issue := range skipped {
		nb.logger.Warn("skipped unreadable note record", "path", nb.Path, "problem", issue.String())
		nb.warnings = append(nb.warnings, "skipped: "+issue.String())
	}
	if p, ok := nb.Store.(core.Preserver); ok {
		backup, err := p.Preserve(ctx)
		if err != nil {
			return fmt.Errorf("failed to preserve notes store: %w", err)
		}
		if backup != "" {
			nb.warnings = append(nb.warnings, fmt.Sprintf("%d unreadable records kept in %s", len(skipped), backup))
		}
	}
	return nil
}

func skippedRecords(store core.Store) []core.Issue {
	if r, ok := store.(core.LoadReporter); ok {
		return r.Skipped()
	}
	return nil
}

// watch reloads the collection after external edits while nothing local is pending.
func (nb *Notebook) watch(ctx context.Context) error {
	w, ok := nb.Store.(core.Watchable)
	if !ok {
		return fmt.Errorf("store does not support watching")
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-changes:
				if !ok {
					return nil
				}
				if e.Type == core.EventExternal {
					nb.reload(ctx)
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		nb.logger.Error("watch loop panic", "error", err)
	}))
	return nil
}

// reload replaces the collection with the store's content unless a local
// change is pending, including one made while the store was being read.
func (nb *Notebook) reload(ctx context.Context) bool {
	gen := nb.Service.Generation()
	if nb.Service.Dirty() {
		nb.logger.Warn("external change ignored: unsaved local changes", "path", nb.Path)
		return false
	}
	notes, err := nb.Store.Load(ctx)
	if err != nil {
		nb.logger.Error("failed to reload notes after external change", "error", err)
		return false
	}
	issues, ok := nb.Service.ReloadIf(gen, notes)
	if !ok {
		nb.logger.Warn("external change ignored: notes edited during reload", "path", nb.Path)
		return false
	}
	if skipped := skippedRecords(nb.Store); len(skipped) > 0 {
		for _, issue := range skipped {
			nb.logger.Warn("skipped unreadable note record", "path", nb.Path, "problem", issue.String())
		}
		if p, ok := nb.Store.(core.Preserver); ok {
			if backup, err := p.Preserve(ctx); err != nil {
				nb.logger.Error("failed to preserve notes store", "error", err)
			} else if backup != "" {
				nb.logger.Warn("unreadable records kept", "path", nb.Path, "backup", backup, "count", len(skipped))
			}
		}
	}
	nb.logger.Info("notes reloaded after external change", "notes", len(notes), "issues", len(issues))
	return true
}

// Warnings returns problems found while opening (corrupt store, repaired records).
func (nb *Notebook) Warnings() []string {
	return append([]string(nil), nb.warnings...)
}

// Events streams note changes. It is nil when events are disabled, and is
// never closed.
func (nb *Notebook) Events() <-chan core.Event {
	return nb.events
}

// EventSource exposes Events as a lifecycle.Source so a supervisor can
// consume note changes next to its other event sources. With kinds set only
// those event types are forwarded.
func (nb *Notebook) EventSource(kinds ...core.EventType) lifecycle.Source {
	return arborlifecycle.NewSource(nb.events, kinds...)
}

// Flush persists pending changes now.
func (nb *Notebook) Flush(ctx context.Context) error {
	return nb.Scheduler.Flush(ctx)
}

// Close stops the background workers, performs a final save and releases
// the store. Calling Close again is a no-op.
func (nb *Notebook) Close(ctx context.Context) error {
	nb.mu.Lock()
	if nb.closed {
		nb.mu.Unlock()
		return nil
	}
	nb.closed = true
	nb.mu.Unlock()

	err := nb.Scheduler.Stop(ctx)
	nb.cancel()
	if cerr := closeStore(nb.Store); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func closeStore(store core.Store) error {
	if c, ok := store.(core.Closer); ok {
		return c.Close()
	}
	return nil
}
