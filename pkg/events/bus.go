// Package events implements a synchronous publish/subscribe registry keyed
// by an exact (key, event name) pair.
package events

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidArgument is returned for an empty key or event name, or a nil handler.
var ErrInvalidArgument = errors.New("events: invalid argument")

// Handler receives the payload of a published event.
type Handler[T any] func(payload T)

type topic struct {
	key   string
	event string
}

// Bus is a typed subscriber registry. Safe for concurrent use.
// Handlers run on the publishing goroutine, in registration order.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[topic][]Handler[T]
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{
		handlers: make(map[topic][]Handler[T]),
	}
}

func validate(key, event string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidArgument)
	}
	if event == "" {
		return fmt.Errorf("%w: event is required", ErrInvalidArgument)
	}
	return nil
}

// Subscribe registers h for the exact (key, event) pair.
func (b *Bus[T]) Subscribe(key, event string, h Handler[T]) error {
	if err := validate(key, event); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: handler is required", ErrInvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	t := topic{key: key, event: event}
	b.handlers[t] = append(b.handlers[t], h)
	return nil
}

// Publish invokes every handler registered for (key, event) with payload.
// Publishing to a pair without subscribers is a no-op.
func (b *Bus[T]) Publish(key, event string, payload T) error {
	if err := validate(key, event); err != nil {
		return err
	}

	// Copy so handlers can subscribe while being dispatched.
	b.mu.RLock()
	subs := append([]Handler[T](nil), b.handlers[topic{key: key, event: event}]...)
	b.mu.RUnlock()

	for _, h := range subs {
		h(payload)
	}
	return nil
}

// Len returns the number of handlers registered for (key, event).
func (b *Bus[T]) Len(key, event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic{key: key, event: event}])
}

// Reset drops every subscription.
func (b *Bus[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[topic][]Handler[T])
}
