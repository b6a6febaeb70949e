package core

import "context"

// Store defines the contract for persisting the whole note collection.
// Implementations own the serialized representation; the core never
// writes partial updates.
type Store interface {
	// Load reads the full collection. A missing store yields an empty
	// collection. A store that exists but cannot be decoded yields a
	// *CorruptStoreError.
	Load(ctx context.Context) ([]Note, error)

	// Save atomically replaces the persisted collection with notes.
	// Concurrent calls are serialized by the implementation.
	Save(ctx context.Context, notes []Note) error
}

// Preserver is implemented by stores that can keep a copy of a corrupt
// payload before it is overwritten by the next save.
type Preserver interface {
	// Preserve copies the current persisted payload aside and returns
	// the location of the copy.
	Preserve(ctx context.Context) (string, error)
}

// LoadReporter is implemented by stores that skip undecodable records on
// Load instead of rejecting the whole collection.
type LoadReporter interface {
	// Skipped returns the records dropped by the most recent Load.
	Skipped() []Issue
}

// Watchable is implemented by stores that can report edits made to the
// persisted collection by another process.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Closer is implemented by stores holding resources beyond a single call.
type Closer interface {
	Close() error
}
