package events

import "sync"

// Collector is a Handler that keeps every event it is handed, in
// arrival order. Types limits what it accepts; empty accepts everything.
type Collector struct {
	Types []string

	mu     sync.Mutex
	events []Event
}

func (c *Collector) Handle(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *Collector) CanHandle(eventType string) bool {
	if len(c.Types) == 0 {
		return true
	}
	for _, t := range c.Types {
		if t == eventType {
			return true
		}
	}
	return false
}

// Events returns a copy of what has been collected so far
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
