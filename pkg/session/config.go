package session

import "time"

// Config controls manager timing.
type Config struct {
	// RefreshThreshold is how long before expiry the proactive refresh runs.
	RefreshThreshold time.Duration `env:"SESSION_REFRESH_THRESHOLD" envDefault:"5m"`
	// RefreshAttempts bounds retries of a single refresh against transient
	// network failures.
	RefreshAttempts int `env:"SESSION_REFRESH_ATTEMPTS" envDefault:"3"`
	// AutoRefresh enables the timer-driven proactive refresh.
	AutoRefresh bool `env:"SESSION_AUTO_REFRESH" envDefault:"true"`
	// OperationTimeout bounds provider calls made from internal timers,
	// where no caller context exists.
	OperationTimeout time.Duration `env:"SESSION_OPERATION_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		RefreshThreshold: 5 * time.Minute,
		RefreshAttempts:  3,
		AutoRefresh:      true,
		OperationTimeout: 30 * time.Second,
	}
}
