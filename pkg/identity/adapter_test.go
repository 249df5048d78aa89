package identity_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/identity"
)

type stubProvider struct {
	identity.Provider

	signInFn  func(ctx context.Context, email, password string) (*identity.Payload, error)
	refreshFn func(ctx context.Context, refreshToken string) (*identity.Payload, error)
}

func (s *stubProvider) SignIn(ctx context.Context, email, password string) (*identity.Payload, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubProvider) RefreshSession(ctx context.Context, refreshToken string) (*identity.Payload, error) {
	return s.refreshFn(ctx, refreshToken)
}

func TestNewAdapter_NilProvider(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		identity.NewAdapter(nil)
	})
}

func TestAdapter_SignIn(t *testing.T) {
	t.Parallel()

	t.Run("success normalizes user and session", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
		adapter := identity.NewAdapter(provider)

		user, session, err := adapter.SignIn(context.Background(), "alice@example.com", "s3cretPass!")
		require.NoError(t, err)
		require.NotNil(t, user)
		require.NotNil(t, session)

		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Alice", user.Name)
		assert.True(t, user.EmailVerified)
		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.True(t, session.ExpiresAt.After(time.Now()))
		assert.Equal(t, user.ID, session.User.ID)
	})

	t.Run("wrong password maps to invalid credentials", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.SignIn(context.Background(), "alice@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, auth.CodeInvalidCredentials, auth.CodeOf(err))
	})

	t.Run("unknown user maps to invalid credentials", func(t *testing.T) {
		t.Parallel()

		adapter := identity.NewAdapter(identity.NewMemoryProvider())

		_, _, err := adapter.SignIn(context.Background(), "nobody@example.com", "whatever")
		require.Error(t, err)
		assert.Equal(t, auth.CodeInvalidCredentials, auth.CodeOf(err))
	})

	t.Run("unverified account maps to email not verified", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider(identity.WithEmailVerification())
		require.NoError(t, provider.SeedUser("bob@example.com", "s3cretPass!", "Bob", false))
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.SignIn(context.Background(), "bob@example.com", "s3cretPass!")
		require.Error(t, err)
		assert.Equal(t, auth.CodeEmailNotVerified, auth.CodeOf(err))
	})

	t.Run("transport failure maps to network error before string matching", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{
			signInFn: func(ctx context.Context, email, password string) (*identity.Payload, error) {
				return nil, &net.OpError{Op: "dial", Err: context.DeadlineExceeded}
			},
		}
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.SignIn(context.Background(), "alice@example.com", "pw")
		require.Error(t, err)
		assert.Equal(t, auth.CodeNetworkError, auth.CodeOf(err))
		assert.True(t, auth.IsRetryable(err))
	})

	t.Run("provider panic surfaces as unknown error", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{
			signInFn: func(ctx context.Context, email, password string) (*identity.Payload, error) {
				panic("provider bug")
			},
		}
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.SignIn(context.Background(), "alice@example.com", "pw")
		require.Error(t, err)
		assert.Equal(t, auth.CodeUnknown, auth.CodeOf(err))
	})

	t.Run("missing session in payload is an unknown error", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{
			signInFn: func(ctx context.Context, email, password string) (*identity.Payload, error) {
				return &identity.Payload{User: &identity.ProviderUser{ID: "u1", Email: email}}, nil
			},
		}
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.SignIn(context.Background(), "alice@example.com", "pw")
		require.Error(t, err)
		assert.Equal(t, auth.CodeUnknown, auth.CodeOf(err))
	})
}

func TestAdapter_SignUp(t *testing.T) {
	t.Parallel()

	t.Run("immediate session without verification gating", func(t *testing.T) {
		t.Parallel()

		adapter := identity.NewAdapter(identity.NewMemoryProvider())

		user, session, err := adapter.SignUp(context.Background(), auth.SignupData{
			Email:    "carol@example.com",
			Password: "s3cretPass!",
			Name:     "Carol",
		})
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, "Carol", user.Name)
		assert.True(t, user.EmailVerified)
	})

	t.Run("verification gating returns user without session", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider(identity.WithEmailVerification())
		adapter := identity.NewAdapter(provider)

		user, session, err := adapter.SignUp(context.Background(), auth.SignupData{
			Email:    "dave@example.com",
			Password: "s3cretPass!",
		})
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Nil(t, session)
		assert.False(t, user.EmailVerified)
	})

	t.Run("duplicate email maps to email already exists", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("taken@example.com", "s3cretPass!", "", true))
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.SignUp(context.Background(), auth.SignupData{
			Email:    "taken@example.com",
			Password: "s3cretPass!",
		})
		require.Error(t, err)
		assert.Equal(t, auth.CodeEmailAlreadyExists, auth.CodeOf(err))
	})
}

func TestAdapter_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates both tokens", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
		adapter := identity.NewAdapter(provider)

		_, first, err := adapter.SignIn(context.Background(), "alice@example.com", "s3cretPass!")
		require.NoError(t, err)

		user, second, err := adapter.Refresh(context.Background(), first.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotEqual(t, first.AccessToken, second.AccessToken)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	})

	t.Run("consumed refresh token is rejected as expired", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
		adapter := identity.NewAdapter(provider)

		_, session, err := adapter.SignIn(context.Background(), "alice@example.com", "s3cretPass!")
		require.NoError(t, err)

		_, _, err = adapter.Refresh(context.Background(), session.RefreshToken)
		require.NoError(t, err)

		_, _, err = adapter.Refresh(context.Background(), session.RefreshToken)
		require.Error(t, err)
		assert.Equal(t, auth.CodeRefreshTokenExpired, auth.CodeOf(err))
		assert.True(t, auth.IsTerminal(err))
	})

	t.Run("empty refresh token short-circuits", func(t *testing.T) {
		t.Parallel()

		called := false
		provider := &stubProvider{
			refreshFn: func(ctx context.Context, refreshToken string) (*identity.Payload, error) {
				called = true
				return nil, nil
			},
		}
		adapter := identity.NewAdapter(provider)

		_, _, err := adapter.Refresh(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, auth.CodeNoRefreshToken, auth.CodeOf(err))
		assert.False(t, called)
	})
}

func TestAdapter_SessionAndSignOut(t *testing.T) {
	t.Parallel()

	provider := identity.NewMemoryProvider()
	require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
	adapter := identity.NewAdapter(provider)

	_, session, err := adapter.SignIn(context.Background(), "alice@example.com", "s3cretPass!")
	require.NoError(t, err)

	user, current, err := adapter.CurrentSession(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, session.AccessToken, current.AccessToken)

	require.NoError(t, adapter.SignOut(context.Background(), session.AccessToken))

	_, _, err = adapter.CurrentSession(context.Background(), session.AccessToken)
	require.Error(t, err)
	assert.Equal(t, auth.CodeSessionExpired, auth.CodeOf(err))

	// Signing out an already revoked token stays a no-op.
	require.NoError(t, adapter.SignOut(context.Background(), session.AccessToken))
}

func TestAdapter_ProfileOperations(t *testing.T) {
	t.Parallel()

	t.Run("update profile name", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("alice@example.com", "s3cretPass!", "Alice", true))
		adapter := identity.NewAdapter(provider)

		_, session, err := adapter.SignIn(context.Background(), "alice@example.com", "s3cretPass!")
		require.NoError(t, err)

		name := "Alice Cooper"
		user, err := adapter.UpdateProfile(context.Background(), session.AccessToken, auth.ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", user.Name)
	})

	t.Run("update password takes effect on next sign in", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		require.NoError(t, provider.SeedUser("alice@example.com", "oldPassword1!", "Alice", true))
		adapter := identity.NewAdapter(provider)

		_, session, err := adapter.SignIn(context.Background(), "alice@example.com", "oldPassword1!")
		require.NoError(t, err)

		require.NoError(t, adapter.UpdatePassword(context.Background(), session.AccessToken, "newPassword1!"))

		_, _, err = adapter.SignIn(context.Background(), "alice@example.com", "oldPassword1!")
		assert.Equal(t, auth.CodeInvalidCredentials, auth.CodeOf(err))

		_, _, err = adapter.SignIn(context.Background(), "alice@example.com", "newPassword1!")
		require.NoError(t, err)
	})

	t.Run("password reset request never reveals account existence", func(t *testing.T) {
		t.Parallel()

		provider := identity.NewMemoryProvider()
		adapter := identity.NewAdapter(provider)

		require.NoError(t, adapter.RequestPasswordReset(context.Background(), "ghost@example.com"))
		assert.Equal(t, []string{"ghost@example.com"}, provider.ResetRequests())
	})
}

func TestAdapter_VerifyEmail(t *testing.T) {
	t.Parallel()

	provider := identity.NewMemoryProvider(identity.WithEmailVerification())
	adapter := identity.NewAdapter(provider)

	user, session, err := adapter.SignUp(context.Background(), auth.SignupData{
		Email:    "eve@example.com",
		Password: "s3cretPass!",
	})
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.False(t, user.EmailVerified)

	token, ok := provider.VerificationTokenFor("eve@example.com")
	require.True(t, ok)

	verified, err := adapter.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	// Token is single use.
	_, err = adapter.VerifyEmail(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, auth.CodeSessionExpired, auth.CodeOf(err))

	// Verified account can now sign in.
	_, session, err = adapter.SignIn(context.Background(), "eve@example.com", "s3cretPass!")
	require.NoError(t, err)
	require.NotNil(t, session)
}

func TestNormalizedUserIDStability(t *testing.T) {
	t.Parallel()

	// Providers with non-UUID user IDs still get a stable derived UUID.
	provider := &stubProvider{
		signInFn: func(ctx context.Context, email, password string) (*identity.Payload, error) {
			return &identity.Payload{
				User:    &identity.ProviderUser{ID: "legacy-id-42", Email: email},
				Session: &identity.ProviderSession{ID: "s", AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600},
			}, nil
		},
	}
	adapter := identity.NewAdapter(provider)

	first, _, err := adapter.SignIn(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)
	second, _, err := adapter.SignIn(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", first.ID.String())
}
