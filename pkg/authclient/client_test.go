package authclient_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/authclient"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/tokenstore"
)

func newClient(t *testing.T, provider identity.Provider, opts ...authclient.Option) *authclient.Client {
	t.Helper()
	cfg := authclient.DefaultConfig()
	cfg.Session.AutoRefresh = false
	client, err := authclient.New(provider, append([]authclient.Option{
		authclient.WithConfig(cfg),
		authclient.WithoutMonitor(),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seeded(t *testing.T) *identity.MemoryProvider {
	t.Helper()
	provider := identity.NewMemoryProvider()
	require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
	return provider
}

func TestClient_LoginRefreshLogout(t *testing.T) {
	t.Parallel()

	client := newClient(t, seeded(t))

	res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
	require.Nil(t, res.Err)
	require.True(t, res.Success)
	require.NotNil(t, res.Session)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.True(t, client.IsAuthenticated())

	refreshed := client.RefreshSession(context.Background())
	require.Nil(t, refreshed.Err)
	assert.NotEqual(t, res.Session.AccessToken, refreshed.Session.AccessToken)
	assert.True(t, client.IsAuthenticated())

	out := client.Logout(context.Background())
	assert.True(t, out.Success)
	assert.Nil(t, client.CurrentSession())
	assert.Nil(t, client.CurrentUser())
	assert.False(t, client.IsAuthenticated())

	// Logout stays successful no matter how often it is called.
	assert.True(t, client.Logout(context.Background()).Success)
}

func TestClient_SignupNeedsVerification(t *testing.T) {
	t.Parallel()

	provider := identity.NewMemoryProvider(identity.WithEmailVerification())
	client := newClient(t, provider)

	res := client.Signup(context.Background(), auth.SignupData{
		Email:         "new@example.com",
		Password:      "Str0ng&Secret",
		Name:          "New User",
		TermsAccepted: true,
	}, false)
	require.Nil(t, res.Err)
	assert.True(t, res.Success)
	require.NotNil(t, res.User)
	assert.Nil(t, res.Session, "verification-gated signup must not create a session")
	assert.False(t, client.IsAuthenticated())

	token, ok := provider.VerificationTokenFor("new@example.com")
	require.True(t, ok)
	verified := client.VerifyEmail(context.Background(), token)
	require.Nil(t, verified.Err)
	assert.True(t, verified.User.EmailVerified)

	login := client.Login(context.Background(), auth.Credentials{Email: "new@example.com", Password: "Str0ng&Secret"})
	require.Nil(t, login.Err)
	assert.True(t, client.IsAuthenticated())
}

func TestClient_SignupImmediateSession(t *testing.T) {
	t.Parallel()

	client := newClient(t, identity.NewMemoryProvider())

	res := client.Signup(context.Background(), auth.SignupData{
		Email:         "carol@example.com",
		Password:      "Str0ng&Secret",
		TermsAccepted: true,
	}, false)
	require.Nil(t, res.Err)
	require.NotNil(t, res.Session)
	assert.True(t, client.IsAuthenticated())
}

func TestClient_SignupValidationNeverReachesProvider(t *testing.T) {
	t.Parallel()

	var signUps atomic.Int32
	provider := &countingSignUpProvider{Provider: identity.NewMemoryProvider(), signUps: &signUps}
	client := newClient(t, provider)

	res := client.Signup(context.Background(), auth.SignupData{
		Email:         "weak@example.com",
		Password:      "password",
		TermsAccepted: true,
	}, false)
	require.NotNil(t, res.Err)
	assert.Equal(t, auth.CodeWeakPassword, res.Err.Code)
	assert.Equal(t, int32(0), signUps.Load())
}

func TestClient_DuplicateLoginSubmissionsCoalesce(t *testing.T) {
	t.Parallel()

	var signIns atomic.Int32
	provider := &countingSignInProvider{Provider: seeded(t), signIns: &signIns, delay: 100 * time.Millisecond}
	client := newClient(t, provider)

	const submits = 6
	var wg sync.WaitGroup
	results := make([]authclient.Result, submits)
	for i := 0; i < submits; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			results[i] = client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), signIns.Load(), "double submits must share one attempt")
	for _, res := range results {
		require.Nil(t, res.Err)
		assert.Equal(t, results[0].Session.AccessToken, res.Session.AccessToken)
	}
}

func TestClient_RateLimitedBeforeProvider(t *testing.T) {
	t.Parallel()

	var signIns atomic.Int32
	provider := &countingSignInProvider{Provider: seeded(t), signIns: &signIns}

	cfg := authclient.DefaultConfig()
	cfg.Session.AutoRefresh = false
	cfg.Credential.MaxAttempts = 3
	client, err := authclient.New(provider, authclient.WithConfig(cfg), authclient.WithoutMonitor())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	for loopIdx := 0; loopIdx < 3; loopIdx++ {
		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "wrong"})
		require.NotNil(t, res.Err)
		assert.Equal(t, auth.CodeInvalidCredentials, res.Err.Code)
	}

	res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "wrong"})
	require.NotNil(t, res.Err)
	assert.Equal(t, auth.CodeRateLimited, res.Err.Code)
	assert.Equal(t, int32(3), signIns.Load(), "blocked attempt must not reach the provider")
}

func TestClient_OriginAndUserAgentPolicy(t *testing.T) {
	t.Parallel()

	t.Run("blocked origin", func(t *testing.T) {
		t.Parallel()

		cfg := authclient.DefaultConfig()
		cfg.Session.AutoRefresh = false
		cfg.Credential.AllowedOrigins = []string{"https://app.example.com"}
		client, err := authclient.New(seeded(t),
			authclient.WithConfig(cfg),
			authclient.WithoutMonitor(),
			authclient.WithOrigin("https://evil.example.com"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		require.NotNil(t, res.Err)
		assert.Equal(t, auth.CodeValidationError, res.Err.Code)
	})

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()

		cfg := authclient.DefaultConfig()
		cfg.Session.AutoRefresh = false
		cfg.Credential.AllowedOrigins = []string{"https://app.example.com"}
		client, err := authclient.New(seeded(t),
			authclient.WithConfig(cfg),
			authclient.WithoutMonitor(),
			authclient.WithOrigin("https://app.example.com/"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		require.Nil(t, res.Err)
	})

	t.Run("blocked user agent", func(t *testing.T) {
		t.Parallel()

		cfg := authclient.DefaultConfig()
		cfg.Session.AutoRefresh = false
		cfg.Credential.BlockedUserAgents = []string{"badbot"}
		client, err := authclient.New(seeded(t),
			authclient.WithConfig(cfg),
			authclient.WithoutMonitor(),
			authclient.WithUserAgent("Mozilla/5.0 BadBot/1.0"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		require.NotNil(t, res.Err)
		assert.Equal(t, auth.CodeValidationError, res.Err.Code)
	})
}

func TestClient_RoundTripThroughSharedBackend(t *testing.T) {
	t.Parallel()

	provider := seeded(t)
	backend := tokenstore.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	first := newClient(t, provider, authclient.WithBackends(backend))
	res := first.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
	require.Nil(t, res.Err)
	require.NoError(t, first.Close())

	second := newClient(t, provider, authclient.WithBackends(backend))
	restored := second.RestoreSession(context.Background())
	require.Nil(t, restored.Err)
	require.NotNil(t, restored.Session)
	assert.Equal(t, "alice@example.com", restored.User.Email)
	assert.True(t, second.IsAuthenticated())
}

func TestClient_CrossContextConflict(t *testing.T) {
	t.Parallel()

	provider := identity.NewMemoryProvider()
	require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
	require.NoError(t, provider.SeedUser("bob@example.com", "s3cretPass!", "Bob", true))

	backend := tokenstore.NewMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })

	cfg := authclient.DefaultConfig()
	cfg.Session.AutoRefresh = false
	cfg.Monitor.EnablePolling = false
	cfg.Monitor.EnableNetworkWatch = false
	cfg.Monitor.EnableHeartbeat = false

	local, err := authclient.New(provider, authclient.WithConfig(cfg), authclient.WithBackends(backend))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	remote := newClient(t, provider, authclient.WithBackends(backend))

	res := local.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
	require.Nil(t, res.Err)

	conflicts := make(chan session.Event, 1)
	local.AddSessionEventListener(session.EventSessionConflict, func(e session.Event) {
		select {
		case conflicts <- e:
		default:
		}
	})

	// Another context signs in as a different user through the same storage.
	require.Nil(t, remote.Login(context.Background(), auth.Credentials{Email: "bob@example.com", Password: "s3cretPass!"}).Err)

	select {
	case e := <-conflicts:
		assert.Equal(t, "logout_all", e.Details["resolution"])
	case <-time.After(2 * time.Second):
		t.Fatal("user mismatch never detected")
	}
	require.Eventually(t, func() bool {
		return !local.IsAuthenticated()
	}, 2*time.Second, 10*time.Millisecond, "user mismatch must clear the local session")
}

func TestClient_ValidationCache(t *testing.T) {
	t.Parallel()

	var getSessions atomic.Int32
	provider := &countingGetSessionProvider{Provider: seeded(t), getSessions: &getSessions}
	client := newClient(t, provider)

	res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
	require.Nil(t, res.Err)

	// Login primes the cache, so repeated validations stay local.
	for loopIdx := 0; loopIdx < 3; loopIdx++ {
		status := client.ValidateSession(context.Background())
		require.True(t, status.Valid)
		assert.Equal(t, "alice@example.com", status.User.Email)
	}
	assert.Equal(t, int32(0), getSessions.Load())

	// Logout drops the cache; the next validation misses.
	client.Logout(context.Background())
	status := client.ValidateSession(context.Background())
	assert.False(t, status.Valid)
}

func TestClient_EventListeners(t *testing.T) {
	t.Parallel()

	client := newClient(t, seeded(t))

	var events []session.EventType
	var mu sync.Mutex
	unsubscribe := client.AddSessionEventListener(session.EventAny, func(e session.Event) {
		mu.Lock()
		events = append(events, e.Type)
		mu.Unlock()
	})

	require.Nil(t, client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"}).Err)
	require.Nil(t, client.RefreshSession(context.Background()).Err)
	client.Logout(context.Background())

	mu.Lock()
	got := append([]session.EventType(nil), events...)
	mu.Unlock()
	assert.Equal(t, []session.EventType{
		session.EventSignedIn,
		session.EventSessionRefreshed,
		session.EventSessionCleared,
	}, got)

	unsubscribe()
	require.Nil(t, client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"}).Err)
	mu.Lock()
	assert.Len(t, events, 3, "unsubscribed listener must not fire")
	mu.Unlock()
}

func TestClient_TokenHandler(t *testing.T) {
	t.Parallel()

	t.Run("fresh session returns current token", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, seeded(t))
		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		require.Nil(t, res.Err)

		token, err := client.RefreshToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, res.Session.AccessToken, token)
	})

	t.Run("near-expiry session refreshes first", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider(identity.WithTokenTTL(10 * time.Second))
		require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
		client := newClient(t, provider) // 30s buffer, so a 10s token is always stale

		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		require.Nil(t, res.Err)

		token, err := client.RefreshToken(context.Background())
		require.NoError(t, err)
		assert.NotEqual(t, res.Session.AccessToken, token)
		assert.Equal(t, client.CurrentSession().AccessToken, token)
	})

	t.Run("signed out returns terminal error", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, seeded(t))

		_, err := client.RefreshToken(context.Background())
		require.Error(t, err)
		assert.Equal(t, auth.CodeNoRefreshToken, auth.CodeOf(err))
	})

	t.Run("jwt exp claim decides expiry", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, seeded(t))

		live := signedJWT(t, time.Now().Add(time.Hour))
		assert.False(t, client.IsTokenExpired(live))

		inBuffer := signedJWT(t, time.Now().Add(5*time.Second)) // inside the 30s buffer
		assert.True(t, client.IsTokenExpired(inBuffer))

		dead := signedJWT(t, time.Now().Add(-time.Minute))
		assert.True(t, client.IsTokenExpired(dead))
	})

	t.Run("opaque token falls back to store bookkeeping", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, seeded(t))
		assert.True(t, client.IsTokenExpired("opaque-token"), "no stored record means expired")

		res := client.Login(context.Background(), auth.Credentials{Email: "alice@example.com", Password: "s3cretPass!"})
		require.Nil(t, res.Err)
		assert.False(t, client.IsTokenExpired("opaque-token"), "stored record is fresh")
	})
}

func signedJWT(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type countingSignInProvider struct {
	identity.Provider
	signIns *atomic.Int32
	delay   time.Duration
}

func (p *countingSignInProvider) SignIn(ctx context.Context, email, password string) (*identity.Payload, error) {
	p.signIns.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.Provider.SignIn(ctx, email, password)
}

type countingSignUpProvider struct {
	identity.Provider
	signUps *atomic.Int32
}

func (p *countingSignUpProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*identity.Payload, error) {
	p.signUps.Add(1)
	return p.Provider.SignUp(ctx, email, password, metadata)
}

type countingGetSessionProvider struct {
	identity.Provider
	getSessions *atomic.Int32
}

func (p *countingGetSessionProvider) GetSession(ctx context.Context, accessToken string) (*identity.Payload, error) {
	p.getSessions.Add(1)
	return p.Provider.GetSession(ctx, accessToken)
}
