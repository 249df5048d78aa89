// Package broadcast provides the in-process event fan-out used by the session
// lifecycle subsystem: a channel-based Broadcaster for consumers that want to
// range over events, and a callback-based Listeners registry for consumers
// that want the subscribe/unsubscribe closure style.
//
// Both are non-blocking on the publishing side: a slow consumer has events
// dropped rather than stalling session state transitions.
//
//	bus := broadcast.NewListeners[session.Event]()
//	off := bus.Subscribe(func(ev session.Event) { ... })
//	defer off()
package broadcast
