package monitor

import (
	"context"
	"net"
	"time"
)

// Prober reports whether the network path to the identity provider is
// usable. Implementations must be safe for repeated calls.
type Prober interface {
	Online(ctx context.Context) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Online(ctx context.Context) bool { return f(ctx) }

// DialProber probes connectivity by opening a TCP connection, typically to
// the provider's host.
type DialProber struct {
	Addr    string
	Timeout time.Duration
}

func (p DialProber) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
