package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/pkg/autosave"
	"github.com/aretw0/arbor/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterAuto   = ""
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
)

// DefaultEventBuffer is the size of the notebook event channel.
const DefaultEventBuffer = 100

// options holds the internal configuration for a notebook.
type options struct {
	store               core.Store
	logger              *slog.Logger
	adapter             string
	interval            time.Duration
	maxFailures         int
	autosave            bool
	versioning          bool
	autoInit            bool
	watch               bool
	clock               func() time.Time
	newID               func() string
	eventBuffer         int
	onSaveFailure       func(*core.SaveFailureError)
	watcherErrorHandler func(error)
	forceTemp           bool
	devSafety           bool
}

// Option defines a functional option for configuring a notebook.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter:     AdapterAuto,
		interval:    autosave.DefaultInterval,
		maxFailures: autosave.DefaultMaxFailures,
		autosave:    true,
		autoInit:    true,
		eventBuffer: DefaultEventBuffer,
		devSafety:   true,
	}
}

// WithLogger sets the logger for every component. Nil discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom storage adapter (e.g. a mock).
// If provided, the adapter named by WithAdapter is skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
// By default it is picked from the file extension.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithAutosaveInterval sets the time between background saves.
func WithAutosaveInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithAutosave enables or disables the background save loop. Close still
// flushes when it is disabled.
func WithAutosave(enabled bool) Option {
	return func(o *options) {
		o.autosave = enabled
	}
}

// WithMaxFailures sets how many consecutive failed saves are tolerated
// before a *core.SaveFailureError is surfaced.
func WithMaxFailures(n int) Option {
	return func(o *options) {
		o.maxFailures = n
	}
}

// WithSaveFailureHandler registers a callback for surfaced save failures.
func WithSaveFailureHandler(fn func(*core.SaveFailureError)) Option {
	return func(o *options) {
		o.onSaveFailure = fn
	}
}

// WithVersioning commits every save to Git (fs adapter only).
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithAutoInit creates the notes directory and, when versioning, the Git
// repository if missing. Defaults to true.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithWatch reloads the collection when another process edits the file and
// there are no unsaved local changes (fs adapter only).
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.watcherErrorHandler = fn
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator overrides the note id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// WithEventBuffer sets the size of the event channel. Zero disables events.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithForceTemp forces the notes file into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true), the notes file is redirected to a temporary directory to
// prevent accidental data loss.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
