package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend shares the record between processes. Change notifications
// ride a pub/sub channel derived from the storage key, so every watching
// context learns about saves and clears made by the others.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an already-connected client.
func NewRedisBackend(client *redis.Client) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("tokenstore: redis client is required")
	}
	return &RedisBackend{client: client}, nil
}

func channelFor(key string) string {
	return key + ":changes"
}

func (b *RedisBackend) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // zero expiration stores without expiry
	}
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis save: %w", err)
	}
	// Publish after the write so watchers always observe the saved state.
	if err := b.client.Publish(ctx, channelFor(key), value).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis notify: %w", err)
	}
	return nil
}

func (b *RedisBackend) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("tokenstore: redis load: %w", err)
	}
	return value, nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis delete: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(key), nil).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis notify: %w", err)
	}
	return nil
}

// Watch subscribes to the key's change channel. Empty payloads signal a
// cleared record and are delivered as nil.
func (b *RedisBackend) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	pubsub := b.client.Subscribe(ctx, channelFor(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("tokenstore: redis watch: %w", err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var payload []byte
				if msg.Payload != "" {
					payload = []byte(msg.Payload)
				}
				select {
				case out <- payload:
				default:
					// Drop rather than stall the pub/sub reader; the
					// watcher reconciles from Load on its next check.
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
