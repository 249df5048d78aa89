package tokenstore

import (
	"context"
	"time"
)

// Backend is a raw key/value storage primitive. Implementations must treat
// ttl <= 0 as "no expiry".
type Backend interface {
	// Save writes the value, replacing any previous one.
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Load returns the stored value or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Watchable is implemented by backends that can deliver change
// notifications for a key. The channel receives the raw value after each
// save, or nil after a delete, and is closed when ctx is canceled.
type Watchable interface {
	Watch(ctx context.Context, key string) (<-chan []byte, error)
}
