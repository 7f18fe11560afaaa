package events

import (
	"time"
)

// Event is one fact about an order or a stock balance. At comes from the
// clock of the operation that produced it, so it lines up with history
// entries and order dates. Version is the event's position in its stream and
// is assigned by the bus on publish.
type Event struct {
	Type    string      `json:"type"`
	Stream  string      `json:"stream"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
	Version int         `json:"version"`
}

// New builds an unversioned event
func New(eventType, stream string, payload interface{}, at time.Time) Event {
	return Event{
		Type:    eventType,
		Stream:  stream,
		Payload: payload,
		At:      at,
	}
}

// Handler receives published events. CanHandle lets a handler subscribed to
// several types skip some of them.
type Handler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// Publisher is what the production service needs from a bus
type Publisher interface {
	Publish(event Event) (Event, error)
}

// Bus is a publisher that keeps its events for replay and fans them out to
// subscribers
type Bus interface {
	Publisher
	Stream(stream string, fromVersion int) []Event
	Since(position int) []Event
	Subscribe(eventTypes []string, handler Handler)
	Unsubscribe(handler Handler)
}
