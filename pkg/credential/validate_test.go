package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/credential"
)

func TestValidateLogin(t *testing.T) {
	t.Parallel()

	v := credential.New(credential.DefaultConfig())

	t.Run("valid input", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateLogin("  User@Example.COM ", "hunter2!")
		assert.True(t, res.Valid)
		assert.Equal(t, "user@example.com", res.SanitizedEmail)
		assert.Empty(t, res.Errors)
	})

	t.Run("malformed email", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateLogin("not-an-email", "secret")
		require.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "email", res.Errors[0].Field)
		assert.Equal(t, auth.CodeValidationError, res.Errors[0].Code)
	})

	t.Run("empty password", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateLogin("user@example.com", "")
		require.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "password", res.Errors[0].Field)
	})

	t.Run("both invalid", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateLogin("", "")
		assert.False(t, res.Valid)
		assert.Len(t, res.Errors, 2)
	})
}

func TestValidateSignup(t *testing.T) {
	t.Parallel()

	v := credential.New(credential.DefaultConfig())

	t.Run("valid input", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateSignup(auth.SignupData{
			Email:         "New@X.com",
			Password:      "Secure123!",
			Name:          "  New   User ",
			TermsAccepted: true,
		})
		assert.True(t, res.Valid)
		assert.Equal(t, "new@x.com", res.Sanitized.Email)
		assert.Equal(t, "New User", res.Sanitized.Name)
		assert.Equal(t, "Secure123!", res.Sanitized.Password, "password must never be transformed")
	})

	t.Run("weak password", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateSignup(auth.SignupData{
			Email:         "new@x.com",
			Password:      "password123",
			TermsAccepted: true,
		})
		require.False(t, res.Valid)
		assert.Equal(t, auth.CodeWeakPassword, res.Errors[0].Code)
	})

	t.Run("terms not accepted", func(t *testing.T) {
		t.Parallel()
		res := v.ValidateSignup(auth.SignupData{
			Email:    "new@x.com",
			Password: "Secure123!",
		})
		require.False(t, res.Valid)
		assert.Equal(t, "termsAccepted", res.Errors[0].Field)
	})
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and lowercases", "  User@Example.COM ", "user@example.com"},
		{"collapses dot runs in local part", "a...b@x.com", "a.b@x.com"},
		{"strips surrounding dots", ".user.@x.com", "user@x.com"},
		{"strips control characters", "user\x00@x.com\n", "user@x.com"},
		{"leaves non-addresses alone", "plainstring", "plainstring"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, credential.NormalizeEmail(tt.input))
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	t.Parallel()

	t.Run("no allowlist accepts everything", func(t *testing.T) {
		t.Parallel()
		v := credential.New(credential.DefaultConfig())
		assert.True(t, v.ValidateOrigin("https://evil.example"))
	})

	t.Run("allowlist enforced", func(t *testing.T) {
		t.Parallel()
		cfg := credential.DefaultConfig()
		cfg.AllowedOrigins = []string{"https://app.example.com"}
		v := credential.New(cfg)

		assert.True(t, v.ValidateOrigin("https://app.example.com"))
		assert.True(t, v.ValidateOrigin("https://app.example.com/"))
		assert.False(t, v.ValidateOrigin("https://evil.example"))
	})
}

func TestValidateUserAgent(t *testing.T) {
	t.Parallel()

	cfg := credential.DefaultConfig()
	cfg.BlockedUserAgents = []string{"sqlmap", "nikto"}
	v := credential.New(cfg)

	assert.True(t, v.ValidateUserAgent("Mozilla/5.0"))
	assert.False(t, v.ValidateUserAgent("sqlmap/1.6"))
	assert.False(t, v.ValidateUserAgent("SQLMap/1.6"))

	unrestricted := credential.New(credential.DefaultConfig())
	assert.True(t, unrestricted.ValidateUserAgent("sqlmap/1.6"))
}
