package identity

import (
	"context"
	"time"
)

// ProviderUser is the provider's raw account shape.
type ProviderUser struct {
	ID            string
	Email         string
	Name          string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProviderSession is the provider's raw session shape. ExpiresIn is seconds
// from issuance; the adapter converts it to an absolute timestamp.
type ProviderSession struct {
	ID           string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Payload is the raw success response from the provider. Signup flows gated
// on email verification return a user without a session.
type Payload struct {
	User    *ProviderUser
	Session *ProviderSession
}

// UserUpdate carries raw profile mutations to the provider. Nil fields are
// left unchanged.
type UserUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

// Provider is the remote identity provider contract. Implementations return
// provider-specific error strings; the Adapter owns translating them.
// The wire protocol behind these calls is opaque to this module.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Payload, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Payload, error)
	SignOut(ctx context.Context, accessToken string) error
	GetSession(ctx context.Context, accessToken string) (*Payload, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Payload, error)
	UpdateUser(ctx context.Context, accessToken string, update UserUpdate) (*Payload, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (*Payload, error)
}
