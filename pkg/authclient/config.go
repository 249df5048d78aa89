package authclient

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/credential"
	"github.com/dmitrymomot/sessionkit/pkg/monitor"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/tokenstore"
)

// Config aggregates the subsystem configs so one env parse covers the
// whole client.
type Config struct {
	Session    session.Config
	Monitor    monitor.Config
	Credential credential.Config
	TokenStore tokenstore.Config

	// CacheSize bounds the validated-user cache.
	CacheSize int `env:"AUTHCLIENT_CACHE_SIZE" envDefault:"128"`
	// CacheTTL is how long a provider validation stays trusted.
	CacheTTL time.Duration `env:"AUTHCLIENT_CACHE_TTL" envDefault:"30s"`
	// TokenExpiryBuffer is applied when deciding whether an access token is
	// still worth sending to an API.
	TokenExpiryBuffer time.Duration `env:"AUTHCLIENT_TOKEN_EXPIRY_BUFFER" envDefault:"30s"`
}

// DefaultConfig returns production defaults for every subsystem.
func DefaultConfig() Config {
	return Config{
		Session:           session.DefaultConfig(),
		Monitor:           monitor.DefaultConfig(),
		Credential:        credential.DefaultConfig(),
		TokenStore:        tokenstore.DefaultConfig(),
		CacheSize:         128,
		CacheTTL:          30 * time.Second,
		TokenExpiryBuffer: 30 * time.Second,
	}
}
