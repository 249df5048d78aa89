package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// Load parses environment variables into the provided struct based on its
// env tags. A .env file in the working directory is applied first if present;
// its absence is not an error.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsing, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
}

// LoadEnv loads additional dotenv files before parsing, in order of
// precedence (earlier files win for duplicate keys, matching godotenv).
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	return godotenv.Load(paths...)
}
