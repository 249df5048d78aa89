// Package auth defines the core data model shared by the session lifecycle
// subsystem: users, sessions, the persisted session record, and the typed
// error taxonomy returned across every public boundary.
//
// The package is a leaf: it depends only on the standard library and
// github.com/google/uuid, so any component (validator, token store, identity
// adapter, session manager, orchestrator) can import it without cycles.
//
// # Errors
//
// All failures that cross a public boundary are represented as *auth.Error
// carrying a stable Code. Errors are immutable after creation; wrapping
// preserves the original cause for errors.Is/errors.As while keeping the
// code stable:
//
//	err := auth.WrapError(auth.CodeNetworkError, "refresh failed", cause)
//	if auth.CodeOf(err) == auth.CodeNetworkError { ... }
package auth
