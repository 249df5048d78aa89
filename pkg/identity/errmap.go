package identity

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
)

// providerErrorCodes maps known provider error strings to the stable
// taxonomy. Matching is case-insensitive on substrings, checked in order;
// anything unmatched falls through to CodeUnknown.
var providerErrorCodes = []struct {
	fragment string
	code     auth.Code
}{
	{"invalid login credentials", auth.CodeInvalidCredentials},
	{"invalid credentials", auth.CodeInvalidCredentials},
	{"invalid email or password", auth.CodeInvalidCredentials},
	{"user not found", auth.CodeUserNotFound},
	{"email not confirmed", auth.CodeEmailNotVerified},
	{"email not verified", auth.CodeEmailNotVerified},
	{"user already registered", auth.CodeEmailAlreadyExists},
	{"email already exists", auth.CodeEmailAlreadyExists},
	{"email already registered", auth.CodeEmailAlreadyExists},
	{"password should be at least", auth.CodeWeakPassword},
	{"password is too weak", auth.CodeWeakPassword},
	{"too many requests", auth.CodeRateLimited},
	{"rate limit", auth.CodeRateLimited},
	{"refresh token not found", auth.CodeRefreshTokenExpired},
	{"refresh_token_not_found", auth.CodeRefreshTokenExpired},
	{"invalid refresh token", auth.CodeRefreshTokenExpired},
	{"refresh token expired", auth.CodeRefreshTokenExpired},
	{"token has expired", auth.CodeSessionExpired},
	{"jwt expired", auth.CodeSessionExpired},
	{"session not found", auth.CodeSessionExpired},
	{"session expired", auth.CodeSessionExpired},
}

// mapProviderError normalizes any provider failure into *auth.Error.
// Transport failures take precedence over string matching so an outage is
// never mistaken for bad credentials.
func mapProviderError(err error) *auth.Error {
	if err == nil {
		return nil
	}
	if e, ok := auth.AsError(err); ok {
		return e
	}
	if isNetworkError(err) {
		return auth.WrapError(auth.CodeNetworkError, "identity provider unreachable", err)
	}

	msg := strings.ToLower(err.Error())
	for _, entry := range providerErrorCodes {
		if strings.Contains(msg, entry.fragment) {
			return auth.WrapError(entry.code, err.Error(), err)
		}
	}
	return auth.WrapError(auth.CodeUnknown, "identity provider error", err)
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
