package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/backoff"
	"github.com/dmitrymomot/sessionkit/pkg/credential"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/tokenstore"
)

// State is the manager's lifecycle state.
type State string

const (
	StateNoSession      State = "no_session"
	StateAuthenticating State = "authenticating"
	StateActive         State = "active"
	StateRefreshing     State = "refreshing"
	StateExpired        State = "expired"
)

// ValidationStatus is the outcome of a read-through session check.
type ValidationStatus struct {
	Valid bool
	User  *auth.User
	Err   error
}

// Manager drives the session lifecycle for one execution context. It is the
// single writer to the token store; everything else reads.
type Manager struct {
	cfg        Config
	adapter    *identity.Adapter
	store      *tokenstore.Store
	validator  *credential.Validator
	identifier string
	bus        *Bus
	ownBus     bool
	strategy   backoff.Strategy
	log        *slog.Logger

	flight singleflight.Group

	mu            sync.RWMutex
	state         State
	current       *auth.Session
	rememberMe    bool
	lastRefreshed time.Time

	timerMu      sync.Mutex
	refreshTimer *time.Timer
	closed       bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger; defaults to discard.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithBus attaches a shared event bus instead of an internal one. The
// caller keeps ownership; Close will not close it.
func WithBus(bus *Bus) ManagerOption {
	return func(m *Manager) {
		if bus != nil {
			m.bus = bus
			m.ownBus = false
		}
	}
}

// WithValidator attaches input validation and failed-attempt rate limiting
// to the login path. Without it, credentials go to the provider as given.
func WithValidator(v *credential.Validator) ManagerOption {
	return func(m *Manager) { m.validator = v }
}

// WithIdentifier sets the rate-limit identifier for this execution context,
// typically a device or installation ID.
func WithIdentifier(id string) ManagerOption {
	return func(m *Manager) {
		if id != "" {
			m.identifier = id
		}
	}
}

// WithBackoff overrides the retry strategy for transient refresh failures.
func WithBackoff(s backoff.Strategy) ManagerOption {
	return func(m *Manager) {
		if s != nil {
			m.strategy = s
		}
	}
}

// NewManager creates a manager in the NoSession state. Panics on a nil
// adapter or store since no operation can proceed without them.
func NewManager(adapter *identity.Adapter, store *tokenstore.Store, cfg Config, opts ...ManagerOption) *Manager {
	if adapter == nil {
		panic("session: identity adapter is required")
	}
	if store == nil {
		panic("session: token store is required")
	}
	if cfg.RefreshThreshold <= 0 {
		cfg = DefaultConfig()
	}

	m := &Manager{
		cfg:        cfg,
		adapter:    adapter,
		store:      store,
		identifier: store.Origin(),
		bus:        NewBus(),
		ownBus:     true,
		strategy:   backoff.Default(),
		log:        logger.Noop(),
		state:      StateNoSession,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentSession returns a snapshot of the active session, or nil.
func (m *Manager) CurrentSession() *auth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	snapshot := *m.current
	return &snapshot
}

// CurrentUser returns the authenticated user, or nil.
func (m *Manager) CurrentUser() *auth.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	user := m.current.User
	return &user
}

// Bus exposes the lifecycle event bus for subscriptions.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Subscribe registers fn for the given lifecycle event type.
func (m *Manager) Subscribe(t EventType, fn func(Event)) func() {
	return m.bus.Subscribe(t, fn)
}

// Login authenticates the credentials and establishes the session. Input
// validation and rate limiting run first when a validator is configured;
// their failures never reach the provider.
func (m *Manager) Login(ctx context.Context, creds auth.Credentials) (*auth.Session, error) {
	if m.validator != nil {
		res := m.validator.ValidateLogin(creds.Email, creds.Password)
		if !res.Valid {
			return nil, res.Errors[0]
		}
		creds.Email = res.SanitizedEmail

		status, err := m.validator.CheckRateLimit(ctx, m.identifier, creds.Email)
		if err != nil {
			// Limiter storage trouble must not lock users out.
			m.log.WarnContext(ctx, "rate limit check failed, allowing", "error", err)
		} else if !status.Allowed {
			return nil, auth.NewError(auth.CodeRateLimited, "too many failed attempts").WithDetails(map[string]any{
				"reset_time": status.ResetTime,
			})
		}
	}

	m.setState(StateAuthenticating)

	_, sess, err := m.adapter.SignIn(ctx, creds.Email, creds.Password)
	if err != nil {
		// USER_NOT_FOUND consumes the budget too, otherwise providers that
		// reveal account existence leave enumeration unthrottled.
		if code := auth.CodeOf(err); m.validator != nil && (code == auth.CodeInvalidCredentials || code == auth.CodeUserNotFound) {
			if rerr := m.validator.RecordFailedAttempt(ctx, m.identifier, creds.Email); rerr != nil {
				m.log.WarnContext(ctx, "failed to record login attempt", "error", rerr)
			}
		}
		m.revertState()
		return nil, err
	}

	if m.validator != nil {
		if rerr := m.validator.ClearAttempts(ctx, m.identifier, creds.Email); rerr != nil {
			m.log.WarnContext(ctx, "failed to clear login attempts", "error", rerr)
		}
	}

	if err := m.adopt(ctx, sess, creds.RememberMe); err != nil {
		m.log.WarnContext(ctx, "session persisted with errors", "error", err)
	}
	m.publish(EventSignedIn, sess, nil)
	return sess, nil
}

// Signup registers a new account. When the provider issues a session
// immediately it is adopted like a login; verification-gated providers
// yield the user with a nil session and the manager stays signed out.
func (m *Manager) Signup(ctx context.Context, data auth.SignupData, rememberMe bool) (*auth.User, *auth.Session, error) {
	if m.validator != nil {
		res := m.validator.ValidateSignup(data)
		if !res.Valid {
			return nil, nil, res.Errors[0]
		}
		data = res.Sanitized
	}

	m.setState(StateAuthenticating)

	user, sess, err := m.adapter.SignUp(ctx, data)
	if err != nil {
		m.revertState()
		return nil, nil, err
	}
	if sess == nil {
		m.revertState()
		return user, nil, nil
	}

	if err := m.adopt(ctx, sess, rememberMe); err != nil {
		m.log.WarnContext(ctx, "session persisted with errors", "error", err)
	}
	m.publish(EventSignedIn, sess, nil)
	return user, sess, nil
}

// UpdateProfile applies profile changes through the provider and persists
// the refreshed user snapshot.
func (m *Manager) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) (*auth.User, error) {
	sess := m.CurrentSession()
	if sess == nil {
		return nil, auth.NewError(auth.CodeSessionExpired, "no active session")
	}

	user, err := m.adapter.UpdateProfile(ctx, sess.AccessToken, update)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	var snapshot *auth.Session
	if m.current != nil {
		m.current.User = *user
		copied := *m.current
		snapshot = &copied
	}
	m.mu.Unlock()

	if snapshot != nil {
		if err := m.store.SaveSession(ctx, auth.NewStoredSession(snapshot), m.isRememberMe()); err != nil {
			m.log.WarnContext(ctx, "profile update persisted with errors", "error", err)
		}
	}
	return user, nil
}

// UpdatePassword changes the account password, enforcing the password
// policy when a validator is configured.
func (m *Manager) UpdatePassword(ctx context.Context, newPassword string) error {
	sess := m.CurrentSession()
	if sess == nil {
		return auth.NewError(auth.CodeSessionExpired, "no active session")
	}
	if m.validator != nil {
		res := m.validator.ValidatePassword(newPassword)
		if !res.Valid {
			msg := "password does not meet security requirements"
			if len(res.Feedback) > 0 {
				msg = res.Feedback[0]
			}
			return auth.NewFieldError(auth.CodeWeakPassword, msg, "password")
		}
	}
	return m.adapter.UpdatePassword(ctx, sess.AccessToken, newPassword)
}

// Logout revokes the session at the provider on a best-effort basis, then
// unconditionally clears local state. Idempotent; storage failures are
// returned for observability but the in-memory session is gone regardless.
func (m *Manager) Logout(ctx context.Context) error {
	m.cancelRefreshTimer()

	sess := m.CurrentSession()
	if sess != nil && sess.AccessToken != "" {
		if err := m.adapter.SignOut(ctx, sess.AccessToken); err != nil {
			m.log.WarnContext(ctx, "provider sign-out failed, clearing anyway", "error", err)
		}
	}

	err := m.store.ClearTokens(ctx)
	m.setSession(nil, StateNoSession)

	if sess != nil {
		m.publish(EventSessionCleared, sess, nil)
	}
	return err
}

// RefreshSession exchanges the refresh token for new credentials. Concurrent
// callers holding the same refresh token share one provider round trip.
// Transient network failures are retried with backoff; terminal failures
// clear the session.
func (m *Manager) RefreshSession(ctx context.Context) (*auth.Session, error) {
	token := m.refreshToken(ctx)
	if token == "" {
		err := auth.NewError(auth.CodeNoRefreshToken, "no refresh token available")
		m.expire(err)
		return nil, err
	}

	result, err, _ := m.flight.Do(token, func() (any, error) {
		return m.doRefresh(ctx, token)
	})
	if err != nil {
		if auth.IsTerminal(err) {
			m.expire(err)
		} else {
			m.revertState()
		}
		return nil, err
	}
	return result.(*auth.Session), nil
}

func (m *Manager) doRefresh(ctx context.Context, token string) (*auth.Session, error) {
	m.setState(StateRefreshing)

	var sess *auth.Session
	err := backoff.Retry(ctx, m.cfg.RefreshAttempts, m.strategy, func(ctx context.Context) error {
		_, fresh, err := m.adapter.Refresh(ctx, token)
		if err != nil {
			if auth.IsRetryable(err) {
				return err
			}
			return backoff.Stop(err)
		}
		sess = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := m.adopt(ctx, sess, m.isRememberMe()); err != nil {
		m.log.WarnContext(ctx, "refreshed session persisted with errors", "error", err)
	}
	m.publish(EventSessionRefreshed, sess, nil)
	return sess, nil
}

// RestoreSession rebuilds the session from the token store on startup. A
// valid stored session is confirmed with the provider; an expired one gets
// a single refresh attempt. Anything else degrades to NoSession without
// error.
func (m *Manager) RestoreSession(ctx context.Context) (*auth.Session, error) {
	record, err := m.store.LoadRecord(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			m.log.WarnContext(ctx, "token store unreadable on restore", "error", err)
		}
		m.setSession(nil, StateNoSession)
		return nil, nil
	}

	m.mu.Lock()
	m.rememberMe = record.RememberMe
	m.mu.Unlock()

	if record.AccessToken != "" && !record.IsAccessTokenExpired(m.cfg.RefreshThreshold) {
		_, sess, err := m.adapter.CurrentSession(ctx, record.AccessToken)
		if err == nil {
			if sess.RefreshToken == "" {
				sess.RefreshToken = record.RefreshToken
			}
			if err := m.adopt(ctx, sess, record.RememberMe); err != nil {
				m.log.WarnContext(ctx, "restored session persisted with errors", "error", err)
			}
			m.publish(EventSessionRestored, sess, nil)
			return sess, nil
		}
		if !auth.IsTerminal(err) && auth.CodeOf(err) != auth.CodeNetworkError {
			m.log.WarnContext(ctx, "stored session rejected by provider", "error", err)
		}
	}

	if record.RefreshToken != "" {
		sess, err := m.refreshWith(ctx, record.RefreshToken)
		if err == nil {
			m.publish(EventSessionRestored, sess, nil)
			return sess, nil
		}
		m.log.InfoContext(ctx, "session restore refresh failed", "code", auth.CodeOf(err))
	}

	if err := m.store.ClearTokens(ctx); err != nil {
		m.log.WarnContext(ctx, "failed to clear stale tokens", "error", err)
	}
	m.setSession(nil, StateNoSession)
	return nil, nil
}

// ValidateSession confirms the current session with the provider. It only
// mutates LastActivityAt; invalid outcomes are reported, not acted on.
func (m *Manager) ValidateSession(ctx context.Context) ValidationStatus {
	sess := m.CurrentSession()
	if sess == nil {
		return ValidationStatus{Valid: false, Err: auth.NewError(auth.CodeSessionExpired, "no active session")}
	}
	if sess.IsExpired() {
		return ValidationStatus{Valid: false, Err: auth.NewError(auth.CodeSessionExpired, "session expired")}
	}

	user, _, err := m.adapter.CurrentSession(ctx, sess.AccessToken)
	if err != nil {
		return ValidationStatus{Valid: false, Err: err}
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.Touch()
	}
	m.mu.Unlock()

	return ValidationStatus{Valid: true, User: user}
}

// Expire clears the session because of an external decision, such as a
// cross-context logout or conflict resolution.
func (m *Manager) Expire(reason error) {
	m.expire(reason)
}

// Close stops the refresh timer and releases the bus if owned. The manager
// must not be used afterwards.
func (m *Manager) Close() error {
	m.timerMu.Lock()
	m.closed = true
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.timerMu.Unlock()

	if m.ownBus {
		return m.bus.Close()
	}
	return nil
}

// refreshWith runs a coalesced refresh for an explicit token, used by the
// restore path before any in-memory session exists.
func (m *Manager) refreshWith(ctx context.Context, token string) (*auth.Session, error) {
	result, err, _ := m.flight.Do(token, func() (any, error) {
		return m.doRefresh(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return result.(*auth.Session), nil
}

// adopt installs a copy of the session as current, persists it, and
// schedules the proactive refresh. The CSRF token is rotated alongside the
// token pair so a leaked token ages out with the session that produced it.
// The caller keeps exclusive ownership of sess.
func (m *Manager) adopt(ctx context.Context, sess *auth.Session, rememberMe bool) error {
	stored := auth.NewStoredSession(sess)
	owned := *sess

	m.mu.Lock()
	m.current = &owned
	m.state = StateActive
	m.rememberMe = rememberMe
	m.lastRefreshed = stored.LastRefreshed
	m.mu.Unlock()

	m.scheduleRefresh(sess.ExpiresAt)

	var errs []error
	if err := m.store.SaveSession(ctx, stored, rememberMe); err != nil {
		errs = append(errs, err)
	}
	if _, err := m.store.RotateCSRF(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SyncStored installs a session observed from another execution context
// without writing it back to the store, preserving the single-writer rule
// for the context that produced it.
func (m *Manager) SyncStored(stored *auth.StoredSession) *auth.Session {
	if stored == nil {
		return nil
	}
	sess := stored.Session()
	owned := *sess

	m.mu.Lock()
	m.current = &owned
	m.state = StateActive
	m.lastRefreshed = stored.LastRefreshed
	m.mu.Unlock()

	m.scheduleRefresh(sess.ExpiresAt)
	return sess
}

// LastRefreshed reports when the current session last got fresh tokens.
// Zero when no session is held.
func (m *Manager) LastRefreshed() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefreshed
}

func (m *Manager) expire(reason error) {
	m.cancelRefreshTimer()

	sess := m.CurrentSession()
	if sess == nil && m.State() == StateNoSession {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.OperationTimeout)
	defer cancel()
	if err := m.store.ClearTokens(ctx); err != nil {
		m.log.Warn("failed to clear tokens on expiry", "error", err)
	}
	m.setSession(nil, StateNoSession)
	m.publish(EventSessionExpired, sess, reason)
}

func (m *Manager) refreshToken(ctx context.Context) string {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()
	if current != nil && current.RefreshToken != "" {
		return current.RefreshToken
	}
	token, err := m.store.RefreshToken(ctx)
	if err != nil {
		return ""
	}
	return token
}

func (m *Manager) isRememberMe() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rememberMe
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// revertState restores the state implied by the current session after a
// failed transition.
func (m *Manager) revertState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.current == nil:
		m.state = StateNoSession
	case m.current.IsExpired():
		m.state = StateExpired
	default:
		m.state = StateActive
	}
}

func (m *Manager) setSession(sess *auth.Session, s State) {
	m.mu.Lock()
	m.current = sess
	m.state = s
	if sess == nil {
		m.rememberMe = false
		m.lastRefreshed = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Manager) publish(t EventType, sess *auth.Session, err error) {
	m.bus.Publish(Event{Type: t, Session: sess, Err: err})
}

// scheduleRefresh arms the proactive refresh timer at expiry minus the
// threshold. An already due session refreshes immediately.
func (m *Manager) scheduleRefresh(expiresAt time.Time) {
	if !m.cfg.AutoRefresh {
		return
	}

	delay := time.Until(expiresAt) - m.cfg.RefreshThreshold
	if delay < 0 {
		delay = 0
	}

	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.closed {
		return
	}
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
	}
	m.refreshTimer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.OperationTimeout)
		defer cancel()
		if _, err := m.RefreshSession(ctx); err != nil {
			m.log.WarnContext(ctx, "proactive refresh failed", "code", auth.CodeOf(err))
		}
	})
}

func (m *Manager) cancelRefreshTimer() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}
