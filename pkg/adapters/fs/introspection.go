package fs

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	Format        string     `json:"format"`
	Versioning    bool       `json:"versioning"`
	Saves         int        `json:"saves"`
	LastSave      *time.Time `json:"last_save,omitempty"`
	Fingerprint   string     `json:"fingerprint,omitempty"`
	WatcherActive bool       `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := StoreState{
		Path:          s.Path,
		Format:        fmt.Sprintf("%T", s.serializer),
		Versioning:    s.config.Versioning,
		Saves:         s.saves,
		LastSave:      s.lastSave,
		WatcherActive: s.watcherActive,
	}
	if ext := filepath.Ext(s.Path); ext != "" {
		state.Format = ext[1:]
	}
	if s.present {
		state.Fingerprint = fmt.Sprintf("%016x", s.fingerprint)
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "fs-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
