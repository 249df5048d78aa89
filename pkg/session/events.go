package session

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
)

// EventType identifies a session lifecycle event.
type EventType string

const (
	// EventAny matches every event type in Subscribe.
	EventAny EventType = "*"

	EventSignedIn         EventType = "signed_in"
	EventSessionRestored  EventType = "session_restored"
	EventSessionRefreshed EventType = "session_refreshed"
	EventSessionCleared   EventType = "session_cleared"
	EventSessionExpired   EventType = "session_expired"
	EventSessionConflict  EventType = "session_conflict"
	EventNetworkOnline    EventType = "network_online"
	EventNetworkOffline   EventType = "network_offline"
	EventHeartbeat        EventType = "heartbeat"
)

// Event is a session lifecycle notification. Session is a snapshot taken at
// publish time; mutating it has no effect on the manager.
type Event struct {
	Type      EventType
	Session   *auth.Session
	Err       error
	Details   map[string]any
	Timestamp time.Time
}

// Bus is the lifecycle event hub shared by the manager, the monitor, and
// application listeners. Callbacks run synchronously on the publishing
// goroutine and must not block.
type Bus struct {
	listeners *broadcast.Listeners[Event]
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{listeners: broadcast.NewListeners[Event]()}
}

// Subscribe registers fn for the given event type (EventAny for all) and
// returns its unsubscribe closure.
func (b *Bus) Subscribe(t EventType, fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	return b.listeners.Subscribe(func(event Event) {
		if t == EventAny || event.Type == t {
			fn(event)
		}
	})
}

// Publish delivers the event to every matching subscriber, stamping the
// timestamp if unset.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.listeners.Publish(event)
}

// Close drops all subscribers.
func (b *Bus) Close() error {
	return b.listeners.Close()
}
