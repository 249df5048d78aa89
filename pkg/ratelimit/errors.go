package ratelimit

import "errors"

var (
	// ErrStoreRequired indicates the limiter was constructed without a store.
	ErrStoreRequired = errors.New("ratelimit.store_required")

	// ErrInvalidLimit indicates a non-positive attempt limit.
	ErrInvalidLimit = errors.New("ratelimit.invalid_limit")

	// ErrInvalidWindow indicates a non-positive window duration.
	ErrInvalidWindow = errors.New("ratelimit.invalid_window")

	// ErrKeyRequired indicates an empty identifier key.
	ErrKeyRequired = errors.New("ratelimit.key_required")
)
