package arbor

import (
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/platform"
	"github.com/aretw0/arbor/pkg/core"
	"github.com/aretw0/arbor/pkg/git"
)

// --- Types ---

// Notebook is a loaded note collection wired to its store and autosave.
type Notebook = platform.Notebook

// NotebookState is the aggregated introspection state of a Notebook.
type NotebookState = platform.NotebookState

// --- Configuration ---

// Option defines a functional option for configuring a Notebook.
type Option = platform.Option

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = platform.AdapterFS
	AdapterSQLite = platform.AdapterSQLite
)

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom storage adapter.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithAutosave enables or disables the background save loop.
func WithAutosave(enabled bool) Option {
	return platform.WithAutosave(enabled)
}

// WithAutosaveInterval sets the time between background saves.
func WithAutosaveInterval(d time.Duration) Option {
	return platform.WithAutosaveInterval(d)
}

// WithMaxFailures sets how many consecutive failed saves are tolerated.
func WithMaxFailures(n int) Option {
	return platform.WithMaxFailures(n)
}

// WithSaveFailureHandler registers a callback for surfaced save failures.
func WithSaveFailureHandler(fn func(*core.SaveFailureError)) Option {
	return platform.WithSaveFailureHandler(fn)
}

// WithVersioning commits every save to Git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithAutoInit creates missing directories and Git repositories.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithWatch reloads the collection after external edits.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return platform.WithClock(clock)
}

// WithIDGenerator overrides the note id generator.
func WithIDGenerator(fn func() string) Option {
	return platform.WithIDGenerator(fn)
}

// WithEventBuffer sets the size of the event channel.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithForceTemp forces the notes file into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used when running via `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// Open loads the notes at path and starts autosaving them.
func Open(path string, opts ...Option) (*Notebook, error) {
	return platform.Open(path, opts...)
}

// --- Change reasons ---

// FormatChangeReason builds a semantic commit message for versioned saves.
// Attach it to a context with core.ChangeReasonKey.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return git.FormatMessage(ctype, scope, subject, body)
}

// --- Safety & Utils ---

// ResolveNotesPath determines the actual notes path based on safety rules.
func ResolveNotesPath(userPath string, forceTemp bool) string {
	return platform.ResolveNotesPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindNotesFile looks upwards from startDir for a notes file.
func FindNotesFile(startDir string, names ...string) (string, error) {
	return platform.FindNotesFile(startDir, names...)
}
