package ratelimit

import (
	"context"
	"time"
)

// Limiter enforces a sliding-window failed-attempt policy.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// New creates a limiter that blocks a key after limit failures within window.
func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

// Check reports whether the key may attempt again. It records nothing.
func (l *Limiter) Check(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := time.Now()
	failures, err := l.store.Window(ctx, key, now.Add(-l.window))
	if err != nil {
		return nil, err
	}

	remaining := l.limit - len(failures)
	resetAt := now
	if len(failures) > 0 {
		// The budget next grows when the oldest failure leaves the window.
		resetAt = failures[0].Add(l.window)
	}

	blocked := remaining <= 0
	return &Result{
		Allowed:   !blocked,
		Remaining: max(remaining, 0),
		Limit:     l.limit,
		ResetAt:   resetAt,
		Blocked:   blocked,
	}, nil
}

// RecordFailure charges one failed attempt against the key.
func (l *Limiter) RecordFailure(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return l.store.Record(ctx, key, time.Now())
}

// Reset clears the key's budget, called after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return l.store.Clear(ctx, key)
}
