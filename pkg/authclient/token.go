package authclient

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RefreshToken returns an access token that is good for at least the
// configured expiry buffer, refreshing first when the current one is not.
// This is the hook HTTP clients install to authenticate requests
// transparently.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	sess := c.manager.CurrentSession()
	if sess != nil && !sess.ExpiresWithin(c.cfg.TokenExpiryBuffer) {
		return sess.AccessToken, nil
	}

	fresh, err := c.manager.RefreshSession(ctx)
	if err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

// IsTokenExpired reports whether the token should be refreshed before use.
// JWTs are judged by their exp claim without signature verification, since
// the client only schedules refreshes and never trusts the claims; opaque
// tokens fall back to the store's bookkeeping.
func (c *Client) IsTokenExpired(token string) bool {
	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		exp, err := claims.GetExpirationTime()
		if err == nil && exp != nil {
			return !exp.After(time.Now().Add(c.cfg.TokenExpiryBuffer))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Session.OperationTimeout)
	defer cancel()
	return c.store.IsAccessTokenExpired(ctx)
}
