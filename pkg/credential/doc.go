// Package credential validates and sanitizes authentication input before any
// network call: email shape, password strength scoring, signup fields, and
// defense-in-depth origin/user-agent checks, plus the failed-attempt rate
// limit gate.
//
// The validator never returns an error for bad input — it always produces a
// structured result the orchestrator maps onto the error taxonomy. Emails are
// normalized (trimmed, lowercased, control characters stripped); passwords
// are never transformed.
package credential
