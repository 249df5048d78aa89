// Package cache provides a thread-safe generic LRU cache with optional
// per-entry TTL. The orchestrator uses it for profile lookups and dedup
// results; entries vanish either by eviction pressure or by expiry.
package cache
