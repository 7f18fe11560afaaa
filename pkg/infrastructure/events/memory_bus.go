package events

import (
	"sync"

	"go.uber.org/zap"
)

type subscription struct {
	types   map[string]bool
	handler Handler
}

// MemoryBus keeps every published event in one log, indexed per stream.
// Handlers run on their own goroutines; Wait blocks until they are done.
type MemoryBus struct {
	mu      sync.RWMutex
	log     []Event
	streams map[string][]int
	subs    []subscription

	logger   *zap.Logger
	inFlight sync.WaitGroup
}

var _ Bus = (*MemoryBus)(nil)

// NewMemoryBus logs handler failures to logger; nil discards them
func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBus{
		streams: make(map[string][]int),
		logger:  logger,
	}
}

// Publish appends event to its stream and returns it with its version set
func (b *MemoryBus) Publish(event Event) (Event, error) {
	b.mu.Lock()
	positions := b.streams[event.Stream]
	event.Version = len(positions) + 1
	b.streams[event.Stream] = append(positions, len(b.log))
	b.log = append(b.log, event)

	var targets []Handler
	for _, sub := range b.subs {
		if sub.types[event.Type] && sub.handler.CanHandle(event.Type) {
			targets = append(targets, sub.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range targets {
		b.inFlight.Add(1)
		go b.deliver(h, event)
	}
	return event, nil
}

func (b *MemoryBus) deliver(h Handler, event Event) {
	defer b.inFlight.Done()
	if err := h.Handle(event); err != nil {
		b.logger.Warn("event handler failed",
			zap.String("event", event.Type),
			zap.String("stream", event.Stream),
			zap.Int("version", event.Version),
			zap.Error(err))
	}
}

// Stream returns the events of one stream from fromVersion (1-based) on
func (b *MemoryBus) Stream(stream string, fromVersion int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if fromVersion < 1 {
		fromVersion = 1
	}
	positions := b.streams[stream]
	if fromVersion > len(positions) {
		return nil
	}
	out := make([]Event, 0, len(positions)-fromVersion+1)
	for _, p := range positions[fromVersion-1:] {
		out = append(out, b.log[p])
	}
	return out
}

// Since returns every event published at or after position (0-based)
func (b *MemoryBus) Since(position int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if position < 0 {
		position = 0
	}
	if position >= len(b.log) {
		return nil
	}
	out := make([]Event, len(b.log)-position)
	copy(out, b.log[position:])
	return out
}

// Subscribe delivers future events of eventTypes to handler. Subscribing the
// same handler twice delivers twice.
func (b *MemoryBus) Subscribe(eventTypes []string, handler Handler) {
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{types: types, handler: handler})
}

// Unsubscribe drops every subscription of handler
func (b *MemoryBus) Unsubscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subs[:0]
	for _, sub := range b.subs {
		if sub.handler != handler {
			kept = append(kept, sub)
		}
	}
	b.subs = kept
}

// Wait blocks until every handler started so far has returned
func (b *MemoryBus) Wait() {
	b.inFlight.Wait()
}
