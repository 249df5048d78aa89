// Package fingerprint derives a stable identifier for the current device.
//
// The session subsystem budgets failed sign-in attempts per device as well
// as per email. Device generates that identifier deterministically from
// host attributes, so restarts of the same installation keep sharing one
// attempt budget while different machines get their own.
//
//	fp := fingerprint.Device("my-app")
//	client, err := authclient.New(provider, authclient.WithIdentifier(fp))
//
// The identifier is a hash, not a secret. It distinguishes devices; it does
// not authenticate them.
package fingerprint
