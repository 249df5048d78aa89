package tokenstore

import "errors"

var (
	// ErrNotFound indicates no record is stored under the key.
	ErrNotFound = errors.New("tokenstore.not_found")

	// ErrNoBackends indicates the store was constructed without backends.
	ErrNoBackends = errors.New("tokenstore.no_backends")

	// ErrNoRecord indicates a token operation ran with nothing stored.
	ErrNoRecord = errors.New("tokenstore.no_record")

	// ErrCSRFMismatch indicates CSRF token validation failed.
	ErrCSRFMismatch = errors.New("tokenstore.csrf_mismatch")

	// ErrWatchUnsupported indicates the primary backend cannot deliver
	// change notifications.
	ErrWatchUnsupported = errors.New("tokenstore.watch_unsupported")
)
