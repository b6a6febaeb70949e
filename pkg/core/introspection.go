package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Notes           int    `json:"notes"`
	Roots           int    `json:"roots"`
	Tags            int    `json:"tags"`
	Generation      uint64 `json:"generation"`
	SavedGeneration uint64 `json:"saved_generation"`
	Dirty           bool   `json:"dirty"`
	LoadIssues      int    `json:"load_issues"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServiceState{
		Notes:           s.index.Len(),
		Roots:           len(s.index.children[""]),
		Tags:            len(s.index.tags),
		Generation:      s.generation,
		SavedGeneration: s.saved,
		Dirty:           s.generation != s.saved,
		LoadIssues:      len(s.issues),
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
