package autosave

import (
	"fmt"
	"time"

	"github.com/aretw0/introspection"
)

// SchedulerState exposes internal state for observability.
type SchedulerState struct {
	Phase               Phase      `json:"phase"`
	Worker              string     `json:"worker"`
	Interval            string     `json:"interval"`
	Saves               int        `json:"saves"`
	LastSave            *time.Time `json:"last_save,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Scheduler) State() any {
	phase := s.Phase()

	s.mu.Lock()
	defer s.mu.Unlock()
	state := SchedulerState{
		Phase:               phase,
		Worker:              "stopped",
		Interval:            s.config.Interval.String(),
		Saves:               s.saves,
		LastSave:            s.lastSave,
		ConsecutiveFailures: s.failures,
	}
	if s.loop != nil {
		state.Worker = fmt.Sprint(s.loop.State().Status)
	}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Scheduler) ComponentType() string {
	return "autosave"
}

var _ introspection.Introspectable = (*Scheduler)(nil)
var _ introspection.Component = (*Scheduler)(nil)
