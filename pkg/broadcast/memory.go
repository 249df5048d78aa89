package broadcast

import (
	"context"
	"sync"
)

// Memory is the in-process Broadcaster implementation. A minimum buffer of 1
// is enforced per subscriber so sends never degenerate into synchronous
// handoffs.
type Memory[T any] struct {
	mu     sync.RWMutex
	subs   map[*subscriber[T]]struct{}
	buffer int
	closed bool
	wg     sync.WaitGroup
}

// NewMemory creates an in-process broadcaster with the given per-subscriber
// channel buffer.
func NewMemory[T any](buffer int) *Memory[T] {
	return &Memory[T]{
		subs:   make(map[*subscriber[T]]struct{}),
		buffer: max(buffer, 1),
	}
}

// Subscribe registers a subscriber that is torn down when ctx is canceled.
// Subscribing to a closed broadcaster yields an already-closed subscriber.
func (m *Memory[T]) Subscribe(ctx context.Context) Subscriber[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := newSubscriber[T](m.buffer)
	if m.closed {
		_ = sub.Close()
		return sub
	}
	m.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			<-ctx.Done()
			m.unsubscribe(sub)
		}()
	}
	return sub
}

// Publish delivers the event to every subscriber. Subscribers that cannot
// accept it (full buffer, already closed) are dropped from the set.
func (m *Memory[T]) Publish(event T) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	for sub := range m.subs {
		if !sub.send(event) {
			go m.unsubscribe(sub)
		}
	}
}

// Close shuts down the broadcaster and all subscribers. Idempotent.
func (m *Memory[T]) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for sub := range m.subs {
		_ = sub.Close()
	}
	clear(m.subs)
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

func (m *Memory[T]) unsubscribe(sub *subscriber[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, sub)
	_ = sub.Close()
}
