package broadcast

import (
	"context"
	"sync"
)

// Subscriber receives events from a Broadcaster over a channel.
// Implementations are safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel events arrive on. The channel is closed
	// when the subscriber or its broadcaster is closed.
	Receive() <-chan T

	// Close releases the subscription. Idempotent.
	Close() error
}

// Broadcaster fans events out to all active subscribers without blocking
// the publisher: events are dropped for subscribers whose buffer is full.
type Broadcaster[T any] interface {
	// Subscribe registers a new subscriber. The subscription is released
	// when ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Publish delivers the event to every active subscriber, best effort.
	Publish(event T)

	// Close shuts the broadcaster down and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch     chan T
	mu     sync.Mutex
	closed bool
}

func newSubscriber[T any](buffer int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan T, buffer)}
}

func (s *subscriber[T]) Receive() <-chan T {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers the event without blocking; reports false when the
// subscriber is closed or its buffer is full.
func (s *subscriber[T]) send(event T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- event:
		return true
	default:
		return false
	}
}
