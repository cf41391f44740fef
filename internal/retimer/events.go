package retimer

import "time"

// EventType identifies a handle lifecycle transition.
type EventType string

// Lifecycle event types.
const (
	EventAttached EventType = "attached"
	EventDetached EventType = "detached"
)

// Event describes one lifecycle transition of a registered handle. Events
// are emitted after the transition is committed: an attached event means the
// handle is already externally visible, a detached event means it no longer
// is and its identifier has been reclaimed.
type Event struct {
	Type       EventType `json:"type"`
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	ParentName string    `json:"parent_name,omitempty"`
	ParentNode string    `json:"parent_node,omitempty"`

	// Live is the number of registered handles after the transition.
	Live int `json:"live"`

	Timestamp time.Time `json:"timestamp"`
}

// Sink receives lifecycle events from a Registry. Implementations must be
// safe for concurrent calls and must not block; slow consumers should buffer
// internally.
type Sink interface {
	HandleEvent(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// HandleEvent implements Sink.
func (f SinkFunc) HandleEvent(e Event) { f(e) }
