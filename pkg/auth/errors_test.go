package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
)

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := auth.WrapError(auth.CodeNetworkError, "refresh failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "NETWORK_ERROR")
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, auth.CodeNetworkError, auth.CodeOf(err))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := auth.NewError(auth.CodeRateLimited, "too many attempts")
	assert.ErrorIs(t, err, auth.NewError(auth.CodeRateLimited, ""))
	assert.NotErrorIs(t, err, auth.NewError(auth.CodeNetworkError, ""))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, auth.Code(""), auth.CodeOf(nil))
	assert.Equal(t, auth.CodeUnknown, auth.CodeOf(errors.New("boom")))

	wrapped := auth.WrapError(auth.CodeSessionExpired, "expired", errors.New("inner"))
	assert.Equal(t, auth.CodeSessionExpired, auth.CodeOf(wrapped))
}

func TestAsErrorThroughChain(t *testing.T) {
	t.Parallel()

	inner := auth.NewFieldError(auth.CodeValidationError, "invalid email", "email")
	outer := errors.Join(errors.New("login failed"), inner)

	got, ok := auth.AsError(outer)
	require.True(t, ok)
	assert.Equal(t, "email", got.Field)
	assert.Equal(t, auth.CodeValidationError, got.Code)
}

func TestCodeClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, auth.CodeRefreshTokenExpired.IsTerminal())
	assert.True(t, auth.CodeNoRefreshToken.IsTerminal())
	assert.True(t, auth.CodeSessionExpired.IsTerminal())
	assert.False(t, auth.CodeNetworkError.IsTerminal())

	assert.True(t, auth.CodeNetworkError.IsRetryable())
	assert.False(t, auth.CodeInvalidCredentials.IsRetryable())
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	orig := auth.NewError(auth.CodeRateLimited, "blocked")
	detailed := orig.WithDetails(map[string]any{"retry_after": 42})

	assert.Nil(t, orig.Details)
	assert.Equal(t, 42, detailed.Details["retry_after"])
}
