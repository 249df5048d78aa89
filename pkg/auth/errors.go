package auth

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies a class of authentication failure. Codes are stable across
// the public API; messages are not.
type Code string

const (
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeEmailNotVerified    Code = "EMAIL_NOT_VERIFIED"
	CodeEmailAlreadyExists  Code = "EMAIL_ALREADY_EXISTS"
	CodeWeakPassword        Code = "WEAK_PASSWORD"
	CodeValidationError     Code = "VALIDATION_ERROR"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeSessionExpired      Code = "SESSION_EXPIRED"
	CodeRefreshTokenExpired Code = "REFRESH_TOKEN_EXPIRED"
	CodeNoRefreshToken      Code = "NO_REFRESH_TOKEN"
	CodeNetworkError        Code = "NETWORK_ERROR"
	CodeUnknown             Code = "UNKNOWN_ERROR"
)

// Error is the structured failure shape propagated up the call chain.
// It is never mutated after creation; callers wrap rather than edit.
type Error struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	cause error
}

// NewError creates an error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewFieldError creates a validation-style error bound to a specific input field.
func NewFieldError(code Code, message, field string) *Error {
	e := NewError(code, message)
	e.Field = field
	return e
}

// WrapError creates an error that preserves the underlying cause for
// errors.Is/errors.As while presenting a stable code.
func WrapError(code Code, message string, cause error) *Error {
	e := NewError(code, message)
	e.cause = cause
	return e
}

// WithDetails returns a copy carrying additional context.
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors by code, so comparison against a code-only sentinel works:
//
//	errors.Is(err, auth.NewError(auth.CodeRateLimited, ""))
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or CodeUnknown for foreign errors.
// A nil err yields an empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return CodeUnknown
}

// IsTerminal reports whether the code ends the current session: terminal
// failures clear local state rather than being retried.
func (c Code) IsTerminal() bool {
	switch c {
	case CodeRefreshTokenExpired, CodeNoRefreshToken, CodeSessionExpired:
		return true
	}
	return false
}

// IsRetryable reports whether the failure is transient and worth a bounded retry.
func (c Code) IsRetryable() bool {
	return c == CodeNetworkError
}

// IsTerminal reports whether err carries a session-ending code.
func IsTerminal(err error) bool {
	return CodeOf(err).IsTerminal()
}

// IsRetryable reports whether err carries a transient code.
func IsRetryable(err error) bool {
	return CodeOf(err).IsRetryable()
}
