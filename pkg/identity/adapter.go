package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// namespace for deriving stable UUIDs from providers whose user IDs are not
// UUID-shaped.
var userIDNamespace = uuid.MustParse("8f3c9d2a-5b71-4e0f-9c64-2d1a8e7b3f50")

// Adapter translates between the raw provider contract and the normalized
// auth shapes. It is stateless: callers own session state.
type Adapter struct {
	provider Provider
	log      *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter's logger; defaults to discard.
func WithLogger(log *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAdapter wraps the provider. Panics on a nil provider since no call
// can succeed without one.
func NewAdapter(provider Provider, opts ...AdapterOption) *Adapter {
	if provider == nil {
		panic("identity: provider is required")
	}
	a := &Adapter{provider: provider, log: logger.Noop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SignIn authenticates and returns the normalized user and session.
func (a *Adapter) SignIn(ctx context.Context, email, password string) (*auth.User, *auth.Session, error) {
	payload, err := a.call(ctx, "sign_in", func(ctx context.Context) (*Payload, error) {
		return a.provider.SignIn(ctx, email, password)
	})
	if err != nil {
		return nil, nil, err
	}
	return a.normalizeUserSession(payload, true)
}

// SignUp registers a new account. Providers gating on email verification
// return the user with a nil session.
func (a *Adapter) SignUp(ctx context.Context, data auth.SignupData) (*auth.User, *auth.Session, error) {
	metadata := map[string]any{}
	if data.Name != "" {
		metadata["name"] = data.Name
	}
	payload, err := a.call(ctx, "sign_up", func(ctx context.Context) (*Payload, error) {
		return a.provider.SignUp(ctx, data.Email, data.Password, metadata)
	})
	if err != nil {
		return nil, nil, err
	}
	return a.normalizeUserSession(payload, false)
}

// SignOut revokes the session at the provider. Callers treat failures as
// best-effort: local state is cleared regardless.
func (a *Adapter) SignOut(ctx context.Context, accessToken string) error {
	_, err := a.call(ctx, "sign_out", func(ctx context.Context) (*Payload, error) {
		return nil, a.provider.SignOut(ctx, accessToken)
	})
	return err
}

// CurrentSession validates the access token against the provider and
// returns the session it still represents.
func (a *Adapter) CurrentSession(ctx context.Context, accessToken string) (*auth.User, *auth.Session, error) {
	payload, err := a.call(ctx, "get_session", func(ctx context.Context) (*Payload, error) {
		return a.provider.GetSession(ctx, accessToken)
	})
	if err != nil {
		return nil, nil, err
	}
	return a.normalizeUserSession(payload, true)
}

// Refresh exchanges the refresh token for a new session.
func (a *Adapter) Refresh(ctx context.Context, refreshToken string) (*auth.User, *auth.Session, error) {
	if refreshToken == "" {
		return nil, nil, auth.NewError(auth.CodeNoRefreshToken, "no refresh token available")
	}
	payload, err := a.call(ctx, "refresh", func(ctx context.Context) (*Payload, error) {
		return a.provider.RefreshSession(ctx, refreshToken)
	})
	if err != nil {
		return nil, nil, err
	}
	return a.normalizeUserSession(payload, true)
}

// UpdateProfile applies profile mutations and returns the updated user.
func (a *Adapter) UpdateProfile(ctx context.Context, accessToken string, update auth.ProfileUpdate) (*auth.User, error) {
	payload, err := a.call(ctx, "update_profile", func(ctx context.Context) (*Payload, error) {
		return a.provider.UpdateUser(ctx, accessToken, UserUpdate{Email: update.Email, Name: update.Name})
	})
	if err != nil {
		return nil, err
	}
	if payload == nil || payload.User == nil {
		return nil, auth.NewError(auth.CodeUnknown, "provider returned no user")
	}
	user := normalizeUser(payload.User)
	return &user, nil
}

// UpdatePassword changes the account password.
func (a *Adapter) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	_, err := a.call(ctx, "update_password", func(ctx context.Context) (*Payload, error) {
		return a.provider.UpdateUser(ctx, accessToken, UserUpdate{Password: &newPassword})
	})
	return err
}

// RequestPasswordReset asks the provider to start a reset flow for the email.
func (a *Adapter) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := a.call(ctx, "reset_password", func(ctx context.Context) (*Payload, error) {
		return nil, a.provider.ResetPasswordForEmail(ctx, email)
	})
	return err
}

// VerifyEmail confirms an address with the provider's verification token.
func (a *Adapter) VerifyEmail(ctx context.Context, token string) (*auth.User, error) {
	payload, err := a.call(ctx, "verify_email", func(ctx context.Context) (*Payload, error) {
		return a.provider.VerifyEmail(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	if payload == nil || payload.User == nil {
		return nil, auth.NewError(auth.CodeUnknown, "provider returned no user")
	}
	user := normalizeUser(payload.User)
	return &user, nil
}

// call runs a provider operation, converting panics and raw errors into the
// taxonomy. Only genuinely unexpected provider bugs reach the recover path.
func (a *Adapter) call(ctx context.Context, op string, fn func(ctx context.Context) (*Payload, error)) (payload *Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.ErrorContext(ctx, "identity provider panicked", "op", op, "panic", r)
			payload = nil
			err = auth.WrapError(auth.CodeUnknown, "identity provider failure", fmt.Errorf("panic in %s: %v", op, r))
		}
	}()

	payload, rawErr := fn(ctx)
	if rawErr != nil {
		mapped := mapProviderError(rawErr)
		a.log.DebugContext(ctx, "identity provider error", "op", op, "code", mapped.Code)
		return nil, mapped
	}
	return payload, nil
}

func (a *Adapter) normalizeUserSession(payload *Payload, requireSession bool) (*auth.User, *auth.Session, error) {
	if payload == nil || payload.User == nil {
		return nil, nil, auth.NewError(auth.CodeUnknown, "provider returned no user")
	}
	user := normalizeUser(payload.User)

	if payload.Session == nil {
		if requireSession {
			return nil, nil, auth.NewError(auth.CodeUnknown, "provider returned no session")
		}
		return &user, nil, nil
	}
	session := normalizeSession(payload.Session, user)
	return &user, session, nil
}

func normalizeUser(raw *ProviderUser) auth.User {
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		id = uuid.NewSHA1(userIDNamespace, []byte(raw.ID))
	}
	return auth.User{
		ID:            id,
		Email:         raw.Email,
		Name:          raw.Name,
		EmailVerified: raw.EmailVerified,
		CreatedAt:     raw.CreatedAt,
		UpdatedAt:     raw.UpdatedAt,
	}
}

func normalizeSession(raw *ProviderSession, user auth.User) *auth.Session {
	now := time.Now()

	id, err := uuid.Parse(raw.ID)
	if err != nil {
		id = uuid.New()
	}

	expiresIn := time.Duration(raw.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}

	return &auth.Session{
		ID:             id,
		User:           user,
		AccessToken:    raw.AccessToken,
		RefreshToken:   raw.RefreshToken,
		ExpiresAt:      now.Add(expiresIn),
		CreatedAt:      now,
		LastActivityAt: now,
	}
}
