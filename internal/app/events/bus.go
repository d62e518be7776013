// Package events provides the application event bus. Delivery is synchronous:
// handlers run on the publishing goroutine before the mutating call returns,
// so observers always see events in the order the state changed.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a published notification.
type Event struct {
	ID        string
	Topic     string
	Source    string
	Timestamp time.Time
	Data      any
}

// Handler consumes events. Handlers must not call back into the publishing
// service; they run inline with the state change.
type Handler func(Event)

type subscription struct {
	id      string
	handler Handler
}

// Bus is a topic-based publish/subscribe hub.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Publish delivers an event to every subscriber of the topic, in subscription
// order, before returning.
func (b *Bus) Publish(topic, source string, data any) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	event := Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	for _, sub := range subs {
		sub.handler(event)
	}
}

// Subscribe registers a handler for a topic and returns an unsubscribe func.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{id: uuid.NewString(), handler: handler}
	b.subs[topic] = append(b.subs[topic], sub)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[topic]
		for i, candidate := range current {
			if candidate.id == sub.id {
				b.subs[topic] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}
