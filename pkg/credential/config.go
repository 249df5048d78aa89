package credential

import "time"

// Config holds validation thresholds and rate limit policy.
type Config struct {
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength int `env:"CREDENTIAL_MIN_PASSWORD_LENGTH" envDefault:"8"`

	// MaxPasswordLength bounds input size against absurd payloads.
	MaxPasswordLength int `env:"CREDENTIAL_MAX_PASSWORD_LENGTH" envDefault:"128"`

	// MinPasswordScore is the minimum strength score (0-4) for a password
	// to be accepted.
	MinPasswordScore int `env:"CREDENTIAL_MIN_PASSWORD_SCORE" envDefault:"3"`

	// MaxAttempts is the failed-attempt threshold per identifier.
	MaxAttempts int `env:"CREDENTIAL_MAX_ATTEMPTS" envDefault:"5"`

	// AttemptWindow is the sliding window for failed attempts.
	AttemptWindow time.Duration `env:"CREDENTIAL_ATTEMPT_WINDOW" envDefault:"15m"`

	// AllowedOrigins restricts request origins when non-empty.
	AllowedOrigins []string `env:"CREDENTIAL_ALLOWED_ORIGINS" envSeparator:","`

	// BlockedUserAgents rejects matching user agents (substring match).
	BlockedUserAgents []string `env:"CREDENTIAL_BLOCKED_USER_AGENTS" envSeparator:","`
}

// DefaultConfig returns the standard validation policy.
func DefaultConfig() Config {
	return Config{
		MinPasswordLength: 8,
		MaxPasswordLength: 128,
		MinPasswordScore:  3,
		MaxAttempts:       5,
		AttemptWindow:     15 * time.Minute,
	}
}
