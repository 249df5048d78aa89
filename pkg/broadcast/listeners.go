package broadcast

import (
	"slices"
	"sync"
)

// Listeners is a callback-style event registry. Subscribe returns an
// unsubscribe closure, matching the listener API exposed to application code.
// Callbacks run synchronously on the publishing goroutine in registration
// order; a callback must not block.
type Listeners[T any] struct {
	mu      sync.RWMutex
	next    int
	entries map[int]func(T)
	closed  bool
}

// NewListeners creates an empty registry.
func NewListeners[T any]() *Listeners[T] {
	return &Listeners[T]{entries: make(map[int]func(T))}
}

// Subscribe registers fn and returns its unsubscribe closure. Unsubscribing
// twice is harmless. Nil callbacks are ignored and yield a no-op closure.
func (l *Listeners[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return func() {}
	}
	id := l.next
	l.next++
	l.entries[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.entries, id)
	}
}

// Publish invokes every registered callback with the event. Panicking
// callbacks are isolated so one bad listener cannot break the others.
func (l *Listeners[T]) Publish(event T) {
	l.mu.RLock()
	ids := make([]int, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	callbacks := make([]func(T), len(ids))
	for i, id := range ids {
		callbacks[i] = l.entries[id]
	}
	l.mu.RUnlock()

	for _, fn := range callbacks {
		invoke(fn, event)
	}
}

// Len returns the number of active listeners.
func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Close drops all listeners and rejects new subscriptions.
func (l *Listeners[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	clear(l.entries)
	return nil
}

func invoke[T any](fn func(T), event T) {
	defer func() {
		_ = recover()
	}()
	fn(event)
}
