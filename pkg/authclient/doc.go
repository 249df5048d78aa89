// Package authclient is the top-level façade over the session subsystem.
// One Client wires the credential validator, failed-attempt rate limiter,
// token store, identity adapter, session manager, background monitor, and
// a small validation cache behind a uniform Result-based API.
//
// Every operation returns a Result instead of panicking; failures carry
// the stable *auth.Error taxonomy. Duplicate login and signup submissions
// for the same email are coalesced, and the client implements the token
// refresh handler contract (RefreshToken, IsTokenExpired) that HTTP
// clients hook into for transparent authentication.
package authclient
