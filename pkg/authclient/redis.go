package authclient

import (
	"context"

	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimit"
	redisconn "github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/tokenstore"
)

// NewWithRedis wires the client on top of a shared Redis server: the token
// store and the failed-attempt budget both live there, so every process
// pointed at the same server behaves like one more context of the same
// session. The connection is owned by the client and closed with it.
func NewWithRedis(ctx context.Context, provider identity.Provider, redisCfg redisconn.Config, opts ...Option) (*Client, error) {
	client, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}

	backend, err := tokenstore.NewRedisBackend(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	opts = append(opts,
		WithBackends(backend),
		WithRateLimitStore(ratelimit.NewRedisStore(client)),
	)
	c, err := New(provider, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	c.owned = append(c.owned, client.Close)
	return c, nil
}
