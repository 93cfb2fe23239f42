package notify

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind identifies a broadcast channel
type EventKind string

const (
	// RateLimitExceeded is published by the API client whenever a call returns HTTP 429
	RateLimitExceeded EventKind = "rate-limit-exceeded"
)

// Event is the only payload contract: a kind and a human readable message
type Event struct {
	Kind    EventKind
	Message string
}

// Handler receives published events
type Handler func(Event)

// Publisher is the side the API client depends on
type Publisher interface {
	Publish(Event)
}

// Subscriber is the side UI surfaces depend on
type Subscriber interface {
	Subscribe(kind EventKind, handler Handler) (unsubscribe func())
}

// Broadcaster is an in-process publish/subscribe channel.
// It is injected into both the API client and the notification surface so neither imports the other.
type Broadcaster struct {
	lock     sync.RWMutex
	handlers map[EventKind]map[string]Handler
}

var (
	_ Publisher  = (*Broadcaster)(nil)
	_ Subscriber = (*Broadcaster)(nil)
)

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		handlers: make(map[EventKind]map[string]Handler),
	}
}

// Subscribe registers handler for kind. The returned func removes it and is safe to call more than once.
func (b *Broadcaster) Subscribe(kind EventKind, handler Handler) func() {
	id := uuid.New().String()

	b.lock.Lock()
	if _, ok := b.handlers[kind]; !ok {
		b.handlers[kind] = make(map[string]Handler)
	}
	b.handlers[kind][id] = handler
	b.lock.Unlock()

	return func() {
		b.lock.Lock()
		defer b.lock.Unlock()
		delete(b.handlers[kind], id)
	}
}

// Publish delivers the event synchronously to every handler subscribed to its kind.
// Handlers are called outside the lock so they may subscribe or unsubscribe.
func (b *Broadcaster) Publish(event Event) {
	b.lock.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Kind]))
	for _, h := range b.handlers[event.Kind] {
		handlers = append(handlers, h)
	}
	b.lock.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
