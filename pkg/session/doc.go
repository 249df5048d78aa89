// Package session owns the authenticated session lifecycle for one
// execution context. The Manager is the single writer to the token store
// and the only component that talks to the identity adapter for lifecycle
// operations: login, logout, proactive refresh, restore on startup, and
// read-through validation.
//
// State moves through NoSession, Authenticating, Active, Refreshing, and
// Expired. Refresh is coalesced per refresh token with singleflight so
// concurrent callers share one provider round trip, and transient network
// failures are retried with backoff while terminal failures clear the
// session.
//
// Lifecycle changes are published on a Bus as typed Events; subscribers
// receive session_restored, session_refreshed, session_cleared and friends
// and get an unsubscribe closure back.
package session
