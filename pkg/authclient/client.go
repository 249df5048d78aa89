package authclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/cache"
	"github.com/dmitrymomot/sessionkit/pkg/credential"
	"github.com/dmitrymomot/sessionkit/pkg/fingerprint"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/monitor"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimit"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/tokenstore"
)

// Result is the uniform outcome of client operations. Exactly one of
// Success or Err is meaningful; Session is nil for operations that do not
// establish one.
type Result struct {
	Success bool
	User    *auth.User
	Session *auth.Session
	Err     *auth.Error
}

// Client is the application-facing entry point to the session subsystem.
type Client struct {
	cfg       Config
	log       *slog.Logger
	adapter   *identity.Adapter
	validator *credential.Validator
	store     *tokenstore.Store
	bus       *session.Bus
	manager   *session.Manager
	monitor   *monitor.Monitor
	users     *cache.LRU[string, auth.User]
	flight    singleflight.Group

	origin    string
	userAgent string

	owned     []func() error
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Client.
type Option func(*options)

type options struct {
	cfg        Config
	log        *slog.Logger
	backends   []tokenstore.Backend
	limitStore ratelimit.Store
	prober     monitor.Prober
	origin     string
	userAgent  string
	noMonitor  bool
	identifier string
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger shared by every component; defaults to discard.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithBackends sets the token store backends, first one preferred for reads
// and watched for cross-context changes. Defaults to an in-memory backend.
// Caller-provided backends are not closed by the client.
func WithBackends(backends ...tokenstore.Backend) Option {
	return func(o *options) { o.backends = backends }
}

// WithRateLimitStore sets the failed-attempt store, for sharing budgets
// across processes through Redis. Defaults to in-memory.
func WithRateLimitStore(store ratelimit.Store) Option {
	return func(o *options) { o.limitStore = store }
}

// WithProber enables network watching with the given connectivity probe.
func WithProber(p monitor.Prober) Option {
	return func(o *options) { o.prober = p }
}

// WithOrigin declares the execution context's origin, checked against the
// configured allowlist on login and signup.
func WithOrigin(origin string) Option {
	return func(o *options) { o.origin = origin }
}

// WithUserAgent declares the user agent string checked against the
// configured blocklist.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithIdentifier sets the rate-limit identifier, typically a device or
// installation ID. Defaults to a fingerprint of the current device.
func WithIdentifier(id string) Option {
	return func(o *options) { o.identifier = id }
}

// WithoutMonitor skips starting the background monitor; useful in tests
// and batch tools.
func WithoutMonitor() Option {
	return func(o *options) { o.noMonitor = true }
}

// New wires the full client around the given identity provider.
func New(provider identity.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("authclient: identity provider is required")
	}

	o := &options{cfg: DefaultConfig(), log: logger.Noop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg.CacheSize <= 0 {
		o.cfg.CacheSize = 128
	}

	c := &Client{
		cfg:       o.cfg,
		log:       o.log,
		origin:    o.origin,
		userAgent: o.userAgent,
	}

	backends := o.backends
	if len(backends) == 0 {
		backend := tokenstore.NewMemoryBackend()
		backends = []tokenstore.Backend{backend}
		c.owned = append(c.owned, backend.Close)
	}

	limitStore := o.limitStore
	if limitStore == nil {
		memStore := ratelimit.NewMemoryStore()
		limitStore = memStore
		c.owned = append(c.owned, memStore.Close)
	}

	limiter, err := ratelimit.New(limitStore, o.cfg.Credential.MaxAttempts, o.cfg.Credential.AttemptWindow)
	if err != nil {
		c.release()
		return nil, err
	}
	c.validator = credential.New(o.cfg.Credential, credential.WithRateLimiter(limiter))

	c.store, err = tokenstore.New(o.cfg.TokenStore, backends...)
	if err != nil {
		c.release()
		return nil, err
	}

	c.adapter = identity.NewAdapter(provider, identity.WithLogger(o.log))
	c.bus = session.NewBus()

	identifier := o.identifier
	if identifier == "" {
		identifier = fingerprint.Device()
	}
	managerOpts := []session.ManagerOption{
		session.WithBus(c.bus),
		session.WithValidator(c.validator),
		session.WithLogger(o.log),
		session.WithIdentifier(identifier),
	}
	c.manager = session.NewManager(c.adapter, c.store, o.cfg.Session, managerOpts...)

	c.users = cache.NewLRU[string, auth.User](o.cfg.CacheSize)

	// A cleared or expired session invalidates every cached validation.
	c.bus.Subscribe(session.EventSessionCleared, func(session.Event) { c.users.Clear() })
	c.bus.Subscribe(session.EventSessionExpired, func(session.Event) { c.users.Clear() })

	if !o.noMonitor {
		monitorOpts := []monitor.Option{
			monitor.WithBus(c.bus),
			monitor.WithLogger(o.log),
		}
		if o.prober != nil {
			monitorOpts = append(monitorOpts, monitor.WithProber(o.prober))
		}
		c.monitor = monitor.New(c.manager, c.store, o.cfg.Monitor, monitorOpts...)
		c.monitor.Start()
	}

	return c, nil
}

// Login authenticates the credentials. Concurrent submissions for the same
// email share one attempt.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) Result {
	if res, blocked := c.guard(); blocked {
		return res
	}

	key := "login:" + credential.NormalizeEmail(creds.Email)
	value, err, _ := c.flight.Do(key, func() (any, error) {
		return c.manager.Login(ctx, creds)
	})
	if err != nil {
		return failure(err)
	}

	sess := value.(*auth.Session)
	c.cacheUser(sess)
	user := sess.User
	return Result{Success: true, User: &user, Session: sess}
}

// Signup registers a new account. With verification-gated providers the
// result succeeds with a user and no session; the caller stays signed out
// until the email is verified.
func (c *Client) Signup(ctx context.Context, data auth.SignupData, rememberMe bool) Result {
	if res, blocked := c.guard(); blocked {
		return res
	}

	type signupOutcome struct {
		user *auth.User
		sess *auth.Session
	}
	key := "signup:" + credential.NormalizeEmail(data.Email)
	value, err, _ := c.flight.Do(key, func() (any, error) {
		user, sess, err := c.manager.Signup(ctx, data, rememberMe)
		if err != nil {
			return nil, err
		}
		return signupOutcome{user: user, sess: sess}, nil
	})
	if err != nil {
		return failure(err)
	}

	outcome := value.(signupOutcome)
	c.cacheUser(outcome.sess)
	return Result{Success: true, User: outcome.user, Session: outcome.sess}
}

// Logout signs out. It never fails user-visibly; provider and storage
// trouble is logged and local state is cleared regardless.
func (c *Client) Logout(ctx context.Context) Result {
	if err := c.manager.Logout(ctx); err != nil {
		c.log.WarnContext(ctx, "logout cleanup incomplete", "error", err)
	}
	return Result{Success: true}
}

// RefreshSession forces a token refresh.
func (c *Client) RefreshSession(ctx context.Context) Result {
	sess, err := c.manager.RefreshSession(ctx)
	if err != nil {
		return failure(err)
	}
	c.cacheUser(sess)
	user := sess.User
	return Result{Success: true, User: &user, Session: sess}
}

// RestoreSession rebuilds the session from storage on startup.
func (c *Client) RestoreSession(ctx context.Context) Result {
	sess, err := c.manager.RestoreSession(ctx)
	if err != nil {
		return failure(err)
	}
	if sess == nil {
		return Result{Success: true}
	}
	c.cacheUser(sess)
	user := sess.User
	return Result{Success: true, User: &user, Session: sess}
}

// UpdateProfile applies profile changes for the signed-in user.
func (c *Client) UpdateProfile(ctx context.Context, update auth.ProfileUpdate) Result {
	user, err := c.manager.UpdateProfile(ctx, update)
	if err != nil {
		return failure(err)
	}
	if sess := c.manager.CurrentSession(); sess != nil {
		c.users.SetTTL(sess.AccessToken, *user, c.cfg.CacheTTL)
	}
	return Result{Success: true, User: user, Session: c.manager.CurrentSession()}
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) Result {
	if err := c.manager.UpdatePassword(ctx, newPassword); err != nil {
		return failure(err)
	}
	return Result{Success: true, User: c.manager.CurrentUser()}
}

// ResetPassword starts the password reset flow for the email. The result
// never reveals whether the account exists.
func (c *Client) ResetPassword(ctx context.Context, email string) Result {
	normalized := credential.NormalizeEmail(email)
	if !credential.IsValidEmail(normalized) {
		return failure(auth.NewFieldError(auth.CodeValidationError, "invalid email address", "email"))
	}
	if err := c.adapter.RequestPasswordReset(ctx, normalized); err != nil {
		return failure(err)
	}
	return Result{Success: true}
}

// VerifyEmail confirms an address with the provider's verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) Result {
	user, err := c.adapter.VerifyEmail(ctx, token)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, User: user}
}

// ValidateSession confirms the current session, trusting a recent provider
// validation from the cache before asking again.
func (c *Client) ValidateSession(ctx context.Context) session.ValidationStatus {
	sess := c.manager.CurrentSession()
	if sess == nil {
		return session.ValidationStatus{Valid: false, Err: auth.NewError(auth.CodeSessionExpired, "no active session")}
	}
	if user, ok := c.users.Get(sess.AccessToken); ok {
		return session.ValidationStatus{Valid: true, User: &user}
	}

	status := c.manager.ValidateSession(ctx)
	if status.Valid && status.User != nil {
		c.users.SetTTL(sess.AccessToken, *status.User, c.cfg.CacheTTL)
	}
	return status
}

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser() *auth.User {
	return c.manager.CurrentUser()
}

// CurrentSession returns a snapshot of the active session, or nil.
func (c *Client) CurrentSession() *auth.Session {
	return c.manager.CurrentSession()
}

// IsAuthenticated reports whether a non-expired session is active.
func (c *Client) IsAuthenticated() bool {
	sess := c.manager.CurrentSession()
	return sess != nil && !sess.IsExpired()
}

// NotifyVisible forwards an application visibility or wake signal to the
// monitor for an immediate session check.
func (c *Client) NotifyVisible() {
	if c.monitor != nil {
		c.monitor.NotifyVisible()
	}
}

// AddSessionEventListener registers fn for the given lifecycle event type
// and returns its unsubscribe closure.
func (c *Client) AddSessionEventListener(t session.EventType, fn func(session.Event)) func() {
	return c.bus.Subscribe(t, fn)
}

// Close stops the monitor and manager, drops listeners, and releases
// everything the client created itself.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		var errs []error
		if c.monitor != nil {
			errs = append(errs, c.monitor.Close())
		}
		if c.manager != nil {
			errs = append(errs, c.manager.Close())
		}
		if c.bus != nil {
			errs = append(errs, c.bus.Close())
		}
		if c.users != nil {
			c.users.Clear()
		}
		errs = append(errs, c.release())
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// guard applies the origin and user agent policy shared by login and signup.
func (c *Client) guard() (Result, bool) {
	if !c.validator.ValidateOrigin(c.origin) {
		return failure(auth.NewError(auth.CodeValidationError, "origin not allowed")), true
	}
	if !c.validator.ValidateUserAgent(c.userAgent) {
		return failure(auth.NewError(auth.CodeValidationError, "client not allowed")), true
	}
	return Result{}, false
}

func (c *Client) cacheUser(sess *auth.Session) {
	if sess == nil || sess.AccessToken == "" {
		return
	}
	c.users.SetTTL(sess.AccessToken, sess.User, c.cfg.CacheTTL)
}

// release closes the resources the client owns.
func (c *Client) release() error {
	var errs []error
	for _, closeFn := range c.owned {
		errs = append(errs, closeFn())
	}
	c.owned = nil
	return errors.Join(errs...)
}

func failure(err error) Result {
	e, ok := auth.AsError(err)
	if !ok {
		e = auth.WrapError(auth.CodeUnknown, "unexpected failure", err)
	}
	return Result{Err: e}
}
