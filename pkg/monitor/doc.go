// Package monitor keeps an established session healthy in the background.
// It periodically validates the session against the provider, watches
// network connectivity through a pluggable Prober, reacts to visibility
// signals from the application, emits heartbeats, and resolves conflicts
// between execution contexts sharing one token store.
//
// Every behavior is individually toggleable through Config and all of them
// stop together on Close. The monitor never writes the token store
// directly; it asks the session manager to refresh, sync, or expire.
package monitor
