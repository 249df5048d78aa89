package auth

import (
	"time"

	"github.com/google/uuid"
)

// StoredSession is the persisted superset of Session. LastRefreshed is the
// tiebreaker for cross-context conflict resolution: when two contexts hold
// diverging records for the same user, the newer refresh wins.
type StoredSession struct {
	SessionID      uuid.UUID `json:"session_id"`
	User           User      `json:"user"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	LastRefreshed  time.Time `json:"last_refreshed"`
}

// NewStoredSession snapshots an in-memory session into its persisted form.
func NewStoredSession(s *Session) *StoredSession {
	if s == nil {
		return nil
	}
	return &StoredSession{
		SessionID:      s.ID,
		User:           s.User,
		AccessToken:    s.AccessToken,
		RefreshToken:   s.RefreshToken,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		LastRefreshed:  time.Now(),
	}
}

// Session rehydrates the in-memory form.
func (r *StoredSession) Session() *Session {
	if r == nil {
		return nil
	}
	return &Session{
		ID:             r.SessionID,
		User:           r.User,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
		LastActivityAt: r.LastActivityAt,
	}
}

// IsExpired reports whether the persisted record is past its expiry.
func (r *StoredSession) IsExpired() bool {
	return r != nil && !r.ExpiresAt.After(time.Now())
}
