package backoff

import (
	"context"
	"errors"
	"time"
)

// Permanent marks an error as non-retryable; Retry stops immediately when
// fn returns one.
type Permanent struct {
	Err error
}

func (p Permanent) Error() string { return p.Err.Error() }
func (p Permanent) Unwrap() error { return p.Err }

// Stop wraps err so Retry gives up without further attempts.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return Permanent{Err: err}
}

// Retry runs fn up to attempts times, sleeping per the strategy between
// attempts and honoring context cancellation. The last error is returned
// unwrapped of its Permanent marker.
func Retry(ctx context.Context, attempts int, strategy Strategy, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if strategy == nil {
		strategy = Default()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(strategy.NextInterval(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
