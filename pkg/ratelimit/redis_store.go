package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps failure timestamps in a Redis sorted set per key,
// scored by unix nanoseconds, so multiple processes share one attempt
// budget. Keys expire after the retention window to avoid unbounded
// growth.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces the stored keys; default "sessionkit:attempts:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisRetention bounds how long failure timestamps are kept.
func WithRedisRetention(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewRedisStore creates a store over the given client. Panics on a nil
// client since every call would fail anyway.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	if client == nil {
		panic("ratelimit: redis client is required")
	}
	s := &RedisStore{
		client:    client,
		prefix:    "sessionkit:attempts:",
		retention: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Record(ctx context.Context, key string, at time.Time) error {
	rkey := s.prefix + key
	score := float64(at.UnixNano())

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: score, Member: strconv.FormatInt(at.UnixNano(), 10)})
	pipe.Expire(ctx, rkey, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ratelimit: record failure: %w", err)
	}
	return nil
}

func (s *RedisStore) Window(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error) {
	rkey := s.prefix + key
	minScore := strconv.FormatInt(cutoff.UnixNano(), 10)

	// Drop everything at or before the cutoff, then read what is left.
	if err := s.client.ZRemRangeByScore(ctx, rkey, "-inf", minScore).Err(); err != nil {
		return nil, fmt.Errorf("ratelimit: trim window: %w", err)
	}
	members, err := s.client.ZRangeByScore(ctx, rkey, &redis.ZRangeBy{Min: "(" + minScore, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("ratelimit: read window: %w", err)
	}

	out := make([]time.Time, 0, len(members))
	for _, member := range members {
		nanos, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, time.Unix(0, nanos))
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit: clear attempts: %w", err)
	}
	return nil
}
