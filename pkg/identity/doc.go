// Package identity is the boundary to the remote identity provider. The
// Provider interface mirrors the provider's raw contract (opaque users,
// sessions, and error strings); the Adapter normalizes those into the
// auth package's User/Session shapes and maps provider error strings onto
// the stable error taxonomy via a deterministic lookup table.
//
// Nothing unexpected escapes this boundary: provider panics and
// unrecognized errors surface as auth.CodeUnknown, transport failures as
// auth.CodeNetworkError.
//
// MemoryProvider is a full in-process implementation (bcrypt password
// hashing, token rotation, optional email-verification gating) used in
// tests and local development.
package identity
