package platform

import (
	"github.com/aretw0/introspection"
)

// NotebookState aggregates the state of every wired component.
type NotebookState struct {
	Path     string   `json:"path"`
	Warnings []string `json:"warnings,omitempty"`
	Service  any      `json:"service"`
	Store    any      `json:"store,omitempty"`
	Autosave any      `json:"autosave"`
}

// State implements introspection.Introspectable.
func (nb *Notebook) State() any {
	state := NotebookState{
		Path:     nb.Path,
		Warnings: nb.Warnings(),
		Service:  nb.Service.State(),
		Autosave: nb.Scheduler.State(),
	}
	if s, ok := nb.Store.(introspection.Introspectable); ok {
		state.Store = s.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (nb *Notebook) ComponentType() string {
	return "notebook"
}

var _ introspection.Introspectable = (*Notebook)(nil)
var _ introspection.Component = (*Notebook)(nil)
