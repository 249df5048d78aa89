package tokenstore

import "time"

// Config holds storage keys and retention policy.
type Config struct {
	// SessionKey is the storage key holding the serialized record.
	SessionKey string `env:"TOKENSTORE_SESSION_KEY" envDefault:"sessionkit:session"`

	// CSRFKey is the storage key holding the CSRF token.
	CSRFKey string `env:"TOKENSTORE_CSRF_KEY" envDefault:"sessionkit:csrf"`

	// ExpiryBuffer treats the access token as expired this long before its
	// literal expiry, so refresh happens proactively.
	ExpiryBuffer time.Duration `env:"TOKENSTORE_EXPIRY_BUFFER" envDefault:"5m"`

	// Retention is how long backends keep the record without remember-me.
	Retention time.Duration `env:"TOKENSTORE_RETENTION" envDefault:"24h"`

	// RememberMeRetention is the extended retention window. It governs how
	// long the record survives between sessions, not token validity.
	RememberMeRetention time.Duration `env:"TOKENSTORE_REMEMBER_ME_RETENTION" envDefault:"720h"`
}

// DefaultConfig returns the standard storage policy.
func DefaultConfig() Config {
	return Config{
		SessionKey:          "sessionkit:session",
		CSRFKey:             "sessionkit:csrf",
		ExpiryBuffer:        5 * time.Minute,
		Retention:           24 * time.Hour,
		RememberMeRetention: 30 * 24 * time.Hour,
	}
}

func (c Config) retention(rememberMe bool) time.Duration {
	if rememberMe {
		return c.RememberMeRetention
	}
	return c.Retention
}
