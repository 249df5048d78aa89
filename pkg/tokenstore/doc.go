// Package tokenstore persists authentication tokens and the session record
// across restarts, with pluggable backends and change notifications for
// cross-context synchronization.
//
// The persisted unit is a single Record per store (one storage key), replaced
// wholesale on every save, plus an independent CSRF token under its own key.
// The memory backend fans change notifications out in-process; the Redis
// backend shares the record between processes and delivers notifications via
// pub/sub — the moral equivalent of a browser storage event.
//
// Remember-me extends the record's retention window (how long the backends
// keep it), never the token's own claimed validity.
package tokenstore
