package tokenstore

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
)

// Record is the persisted unit: the token pair, expiry bookkeeping, and an
// optional session snapshot. At most one record exists per store; saving
// replaces it wholesale.
type Record struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	ExpiresAt    time.Time           `json:"expires_at"`
	IssuedAt     time.Time           `json:"issued_at"`
	RetainUntil  time.Time           `json:"retain_until"`
	RememberMe   bool                `json:"remember_me"`
	Session      *auth.StoredSession `json:"session,omitempty"`

	// Origin identifies the store instance that wrote the record, letting
	// watchers distinguish their own writes from foreign ones.
	Origin string `json:"origin,omitempty"`
}

// IsAccessTokenExpired reports whether the access token should be treated as
// expired, applying the buffer ahead of the literal expiry.
func (r *Record) IsAccessTokenExpired(buffer time.Duration) bool {
	if r == nil || r.AccessToken == "" {
		return true
	}
	return !r.ExpiresAt.After(time.Now().Add(buffer))
}

// IsRetained reports whether the record is still within its retention window.
func (r *Record) IsRetained() bool {
	return r != nil && (r.RetainUntil.IsZero() || r.RetainUntil.After(time.Now()))
}

// Change is a store change notification. Record is nil when the record was
// cleared.
type Change struct {
	Key    string
	Record *Record
}

// Foreign reports whether the change was written by a different store
// instance than the given origin. Cleared records cannot carry an origin and
// always count as foreign.
func (c Change) Foreign(origin string) bool {
	return c.Record == nil || c.Record.Origin != origin
}
