// Package lifecycle exposes note change events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"slices"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/arbor/pkg/core"
)

// Reloaded is emitted in place of a core.EventExternal: the whole collection
// was replaced from the store, so no single note id applies.
type Reloaded struct {
	At time.Time
}

func (r Reloaded) String() string {
	return "notes reloaded from store"
}

type noteSource struct {
	events <-chan core.Event
	kinds  []core.EventType
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source over a note event channel. With kinds
// set only those event types are forwarded. Per-note events are emitted as
// core.Event; external reloads as Reloaded.
func NewSource(events <-chan core.Event, kinds ...core.EventType) lifecycle.Source {
	return &noteSource{
		events: events,
		kinds:  kinds,
		out:    make(chan lifecycle.Event),
	}
}

func (s *noteSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *noteSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if len(s.kinds) > 0 && !slices.Contains(s.kinds, e.Type) {
					continue
				}
				select {
				case s.out <- translate(e):
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

func translate(e core.Event) lifecycle.Event {
	if e.Type == core.EventExternal {
		return Reloaded{At: time.Unix(e.Timestamp, 0)}
	}
	return e
}
