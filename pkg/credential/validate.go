package credential

import (
	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/ratelimit"
)

// Validator performs structural validation of authentication input.
type Validator struct {
	cfg     Config
	limiter *ratelimit.Limiter
}

// Option configures a Validator.
type Option func(*Validator)

// WithRateLimiter attaches the failed-attempt limiter consulted by
// CheckRateLimit. Without it, rate limit checks always allow.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(v *Validator) { v.limiter = l }
}

// New creates a validator with the given policy.
func New(cfg Config, opts ...Option) *Validator {
	if cfg.MinPasswordLength <= 0 {
		cfg = DefaultConfig()
	}
	v := &Validator{cfg: cfg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LoginResult is the structured outcome of login input validation.
type LoginResult struct {
	Valid          bool
	SanitizedEmail string
	Errors         []*auth.Error
}

// ValidateLogin checks login input shape. It never returns an error; bad
// input yields Valid=false with field-scoped errors.
func (v *Validator) ValidateLogin(email, password string) LoginResult {
	res := LoginResult{SanitizedEmail: NormalizeEmail(email)}

	if !IsValidEmail(res.SanitizedEmail) {
		res.Errors = append(res.Errors, auth.NewFieldError(auth.CodeValidationError, "invalid email address", "email"))
	}
	if password == "" {
		res.Errors = append(res.Errors, auth.NewFieldError(auth.CodeValidationError, "password is required", "password"))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// SignupResult is the structured outcome of signup input validation.
type SignupResult struct {
	Valid     bool
	Sanitized auth.SignupData
	Password  PasswordResult
	Errors    []*auth.Error
}

// ValidateSignup checks registration input: email shape, password strength,
// display name, and terms acceptance.
func (v *Validator) ValidateSignup(data auth.SignupData) SignupResult {
	res := SignupResult{
		Sanitized: auth.SignupData{
			Email:         NormalizeEmail(data.Email),
			Password:      data.Password,
			Name:          NormalizeName(data.Name),
			TermsAccepted: data.TermsAccepted,
		},
	}

	if !IsValidEmail(res.Sanitized.Email) {
		res.Errors = append(res.Errors, auth.NewFieldError(auth.CodeValidationError, "invalid email address", "email"))
	}

	res.Password = v.ValidatePassword(data.Password)
	if !res.Password.Valid {
		msg := "password does not meet security requirements"
		if len(res.Password.Feedback) > 0 {
			msg = res.Password.Feedback[0]
		}
		res.Errors = append(res.Errors, auth.NewFieldError(auth.CodeWeakPassword, msg, "password"))
	}

	if len(res.Sanitized.Name) > 100 {
		res.Errors = append(res.Errors, auth.NewFieldError(auth.CodeValidationError, "name is too long", "name"))
	}
	if !data.TermsAccepted {
		res.Errors = append(res.Errors, auth.NewFieldError(auth.CodeValidationError, "terms must be accepted", "termsAccepted"))
	}

	res.Valid = len(res.Errors) == 0
	return res
}
