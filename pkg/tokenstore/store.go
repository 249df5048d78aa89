package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
)

// Store is the token store façade over one or more backends. Reads prefer
// earlier backends; writes and clears go to all of them. Within one
// execution context only the session manager writes here.
type Store struct {
	cfg      Config
	backends []Backend
	origin   string
}

// New creates a store over the given backends, first backend preferred for
// reads and watches.
func New(cfg Config, backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}
	if cfg.SessionKey == "" {
		cfg = DefaultConfig()
	}
	return &Store{
		cfg:      cfg,
		backends: backends,
		origin:   uuid.NewString(),
	}, nil
}

// Origin identifies this store instance in change notifications.
func (s *Store) Origin() string {
	return s.origin
}

// StoreTokens persists a token pair, replacing any previous record wholesale.
// ExpiresAt is absolute; rememberMe extends only the retention window.
func (s *Store) StoreTokens(ctx context.Context, access, refresh string, expiresIn time.Duration, rememberMe bool) error {
	now := time.Now()
	return s.saveRecord(ctx, &Record{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(expiresIn),
		IssuedAt:     now,
		RetainUntil:  now.Add(s.cfg.retention(rememberMe)),
		RememberMe:   rememberMe,
	})
}

// SaveSession persists the full session snapshot along with its tokens.
func (s *Store) SaveSession(ctx context.Context, stored *auth.StoredSession, rememberMe bool) error {
	if stored == nil {
		return ErrNoRecord
	}
	now := time.Now()
	return s.saveRecord(ctx, &Record{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		ExpiresAt:    stored.ExpiresAt,
		IssuedAt:     now,
		RetainUntil:  now.Add(s.cfg.retention(rememberMe)),
		RememberMe:   rememberMe,
		Session:      stored,
	})
}

func (s *Store) saveRecord(ctx context.Context, record *Record) error {
	record.Origin = s.origin

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("tokenstore: marshal record: %w", err)
	}

	ttl := time.Until(record.RetainUntil)
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Save(ctx, s.cfg.SessionKey, data, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadRecord returns the stored record, or ErrNotFound when absent or past
// its retention window.
func (s *Store) LoadRecord(ctx context.Context) (*Record, error) {
	var lastErr error = ErrNotFound
	for _, backend := range s.backends {
		data, err := backend.Load(ctx, s.cfg.SessionKey)
		if err != nil {
			lastErr = err
			continue
		}
		record, err := decodeRecord(data)
		if err != nil {
			lastErr = err
			continue
		}
		if !record.IsRetained() {
			return nil, ErrNotFound
		}
		return record, nil
	}
	return nil, lastErr
}

// LoadSession returns the stored session snapshot, if any.
func (s *Store) LoadSession(ctx context.Context) (*auth.StoredSession, error) {
	record, err := s.LoadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if record.Session == nil {
		return nil, ErrNotFound
	}
	return record.Session, nil
}

// AccessToken returns the stored access token.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	record, err := s.LoadRecord(ctx)
	if err != nil {
		return "", err
	}
	if record.AccessToken == "" {
		return "", ErrNoRecord
	}
	return record.AccessToken, nil
}

// RefreshToken returns the stored refresh token.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	record, err := s.LoadRecord(ctx)
	if err != nil {
		return "", err
	}
	if record.RefreshToken == "" {
		return "", ErrNoRecord
	}
	return record.RefreshToken, nil
}

// IsAccessTokenExpired applies the configured expiry buffer; a missing
// record reads as expired.
func (s *Store) IsAccessTokenExpired(ctx context.Context) bool {
	return s.IsAccessTokenExpiredWithin(ctx, s.cfg.ExpiryBuffer)
}

// IsAccessTokenExpiredWithin applies a caller-chosen buffer.
func (s *Store) IsAccessTokenExpiredWithin(ctx context.Context, buffer time.Duration) bool {
	record, err := s.LoadRecord(ctx)
	if err != nil {
		return true
	}
	return record.IsAccessTokenExpired(buffer)
}

// ClearTokens erases the record and the CSRF token from every backend.
// Every backend is attempted even when earlier ones fail; failures are
// joined into the returned error.
func (s *Store) ClearTokens(ctx context.Context) error {
	var errs []error
	for _, backend := range s.backends {
		if err := backend.Delete(ctx, s.cfg.SessionKey); err != nil {
			errs = append(errs, err)
		}
		if err := backend.Delete(ctx, s.cfg.CSRFKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch delivers decoded change notifications from the primary backend.
// Callers filter their own writes with Change.Foreign(store.Origin()).
func (s *Store) Watch(ctx context.Context) (<-chan Change, error) {
	watchable, ok := s.backends[0].(Watchable)
	if !ok {
		return nil, ErrWatchUnsupported
	}

	raw, err := watchable.Watch(ctx, s.cfg.SessionKey)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		for data := range raw {
			change := Change{Key: s.cfg.SessionKey}
			if data != nil {
				record, err := decodeRecord(data)
				if err != nil {
					continue // a torn write; the next save supersedes it
				}
				change.Record = record
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("tokenstore: decode record: %w", err)
	}
	return &record, nil
}
