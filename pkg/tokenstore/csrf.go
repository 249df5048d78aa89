package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"
)

const csrfTokenBytes = 32

// CSRFToken returns the CSRF token bound to the current session, generating
// and persisting one on first use.
func (s *Store) CSRFToken(ctx context.Context) (string, error) {
	data, err := s.backends[0].Load(ctx, s.cfg.CSRFKey)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	return s.RotateCSRF(ctx)
}

// RotateCSRF replaces the CSRF token. Called on every token rotation so a
// leaked token ages out with the session that produced it.
func (s *Store) RotateCSRF(ctx context.Context) (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tokenstore: generate csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	ttl := s.cfg.Retention
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	for _, backend := range s.backends {
		if err := backend.Save(ctx, s.cfg.CSRFKey, []byte(token), ttl); err != nil {
			return "", err
		}
	}
	return token, nil
}

// ValidateCSRFToken compares the supplied token against the stored one in
// constant time.
func (s *Store) ValidateCSRFToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrCSRFMismatch
	}
	stored, err := s.backends[0].Load(ctx, s.cfg.CSRFKey)
	if err != nil {
		return ErrCSRFMismatch
	}
	if subtle.ConstantTimeCompare(stored, []byte(token)) != 1 {
		return ErrCSRFMismatch
	}
	return nil
}
