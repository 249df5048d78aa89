package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of an identifier's attempt budget.
type Result struct {
	// Allowed reports whether another attempt may proceed.
	Allowed bool

	// Remaining is the number of failed attempts left before blocking.
	Remaining int

	// Limit is the configured failure threshold.
	Limit int

	// ResetAt is when the oldest recorded failure leaves the window and
	// the budget grows again.
	ResetAt time.Time

	// Blocked reports whether the identifier has exhausted its budget.
	Blocked bool
}

// RetryAfter returns how long until the next attempt is allowed, zero when
// not blocked.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store persists failure timestamps per key.
type Store interface {
	// Record appends a failure timestamp for the key.
	Record(ctx context.Context, key string, at time.Time) error

	// Window returns the failure timestamps for the key that fall after
	// cutoff, oldest first.
	Window(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error)

	// Clear removes all recorded failures for the key.
	Clear(ctx context.Context, key string) error
}
