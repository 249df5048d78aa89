package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account as normalized by the identity
// adapter. Identity facts (ID, CreatedAt) never change; profile fields are
// replaced wholesale on login, refresh, and profile updates.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session is the in-memory authenticated state for one logical login.
// Exactly one session is current per execution context; it is created on
// login, mutated on refresh (new tokens, new expiry), and destroyed on
// logout, terminal refresh failure, or conflict resolution.
type Session struct {
	ID             uuid.UUID `json:"id"`
	User           User      `json:"user"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// IsExpired reports whether the session is past its absolute expiry.
// A session with ExpiresAt <= now is logically expired even if still cached.
func (s *Session) IsExpired() bool {
	return s != nil && !s.ExpiresAt.After(time.Now())
}

// ExpiresWithin reports whether the session expires within the given buffer.
// Used to trigger proactive refresh before the token actually lapses.
func (s *Session) ExpiresWithin(buffer time.Duration) bool {
	return s != nil && !s.ExpiresAt.After(time.Now().Add(buffer))
}

// Touch updates the last activity time.
func (s *Session) Touch() {
	if s != nil {
		s.LastActivityAt = time.Now()
	}
}

// Credentials carries a login request. The password is never transformed
// or logged; RememberMe only extends client-side retention, never the
// token's own validity.
type Credentials struct {
	Email      string
	Password   string
	RememberMe bool
}

// SignupData carries a registration request.
type SignupData struct {
	Email         string
	Password      string
	Name          string
	TermsAccepted bool
}

// ProfileUpdate carries mutable profile fields for UpdateProfile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
}
