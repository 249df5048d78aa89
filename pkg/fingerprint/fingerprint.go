package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"strings"
)

// Device creates a stable identifier for the current machine. It combines
// the hostname, operating system, and architecture with any extra
// components the caller supplies (application name, installation ID) and
// returns the first 16 bytes of the SHA-256 hash as a 32-character hex
// string.
func Device(extras ...string) string {
	hostname, _ := os.Hostname()

	components := []string{
		hostname,
		runtime.GOOS,
		runtime.GOARCH,
	}
	components = append(components, extras...)

	var filtered []string
	for _, comp := range components {
		if comp != "" {
			filtered = append(filtered, comp)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(filtered, "|")))
	return hex.EncodeToString(hash[:16])
}

// Validate reports whether stored matches the identifier the current
// device would generate with the same extras.
func Validate(stored string, extras ...string) bool {
	return stored != "" && Device(extras...) == stored
}
