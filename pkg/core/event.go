package core

import "fmt"

// EventType represents the type of change in the collection.
type EventType string

const (
	EventCreate   EventType = "CREATE"
	EventModify   EventType = "MODIFY"
	EventMove     EventType = "MOVE"
	EventDelete   EventType = "DELETE"
	EventExternal EventType = "EXTERNAL" // persisted file changed by another process
)

// Event represents a change to a note or to the persisted collection.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	if e.ID == "" {
		return string(e.Type)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
