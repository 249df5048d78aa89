package credential

import (
	"context"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/ratelimit"
)

// RateLimitStatus reports the attempt budget for an identifier/email pair.
type RateLimitStatus struct {
	Allowed           bool
	RemainingAttempts int
	ResetTime         time.Time
	Blocked           bool
}

// CheckRateLimit consults the failed-attempt limiter for both the identifier
// (typically client IP) and, when given, the email. The stricter budget wins.
// Without a configured limiter the check always allows.
func (v *Validator) CheckRateLimit(ctx context.Context, identifier, email string) (RateLimitStatus, error) {
	if v.limiter == nil || identifier == "" {
		return RateLimitStatus{Allowed: true, RemainingAttempts: v.cfg.MaxAttempts}, nil
	}

	res, err := v.limiter.Check(ctx, identifierKey(identifier))
	if err != nil {
		return RateLimitStatus{}, err
	}
	status := fromResult(res)

	if email != "" {
		emailRes, err := v.limiter.Check(ctx, emailKey(email))
		if err != nil {
			return RateLimitStatus{}, err
		}
		if emailRes.Remaining < res.Remaining {
			status = fromResult(emailRes)
		}
	}
	return status, nil
}

// RecordFailedAttempt charges a failure against both budgets.
func (v *Validator) RecordFailedAttempt(ctx context.Context, identifier, email string) error {
	if v.limiter == nil || identifier == "" {
		return nil
	}
	if err := v.limiter.RecordFailure(ctx, identifierKey(identifier)); err != nil {
		return err
	}
	if email != "" {
		return v.limiter.RecordFailure(ctx, emailKey(email))
	}
	return nil
}

// ClearAttempts resets both budgets after a successful attempt.
func (v *Validator) ClearAttempts(ctx context.Context, identifier, email string) error {
	if v.limiter == nil || identifier == "" {
		return nil
	}
	if err := v.limiter.Reset(ctx, identifierKey(identifier)); err != nil {
		return err
	}
	if email != "" {
		return v.limiter.Reset(ctx, emailKey(email))
	}
	return nil
}

func fromResult(r *ratelimit.Result) RateLimitStatus {
	return RateLimitStatus{
		Allowed:           r.Allowed,
		RemainingAttempts: r.Remaining,
		ResetTime:         r.ResetAt,
		Blocked:           r.Blocked,
	}
}

func identifierKey(id string) string { return "id:" + id }

func emailKey(email string) string { return "email:" + NormalizeEmail(email) }
