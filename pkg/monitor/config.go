package monitor

import "time"

// Config toggles and times the background behaviors.
type Config struct {
	// PollInterval drives periodic session validation.
	PollInterval time.Duration `env:"MONITOR_POLL_INTERVAL" envDefault:"30s"`
	// ProbeInterval drives connectivity probing.
	ProbeInterval time.Duration `env:"MONITOR_PROBE_INTERVAL" envDefault:"15s"`
	// HeartbeatInterval drives heartbeat events.
	HeartbeatInterval time.Duration `env:"MONITOR_HEARTBEAT_INTERVAL" envDefault:"60s"`
	// ConflictWindow is how close two refreshes must land to count as a
	// simultaneous duplicate rather than ordinary rotation.
	ConflictWindow time.Duration `env:"MONITOR_CONFLICT_WINDOW" envDefault:"5s"`
	// OperationTimeout bounds provider calls made from monitor loops.
	OperationTimeout time.Duration `env:"MONITOR_OPERATION_TIMEOUT" envDefault:"10s"`

	EnablePolling       bool `env:"MONITOR_ENABLE_POLLING" envDefault:"true"`
	EnableNetworkWatch  bool `env:"MONITOR_ENABLE_NETWORK_WATCH" envDefault:"true"`
	EnableConflictWatch bool `env:"MONITOR_ENABLE_CONFLICT_WATCH" envDefault:"true"`
	EnableHeartbeat     bool `env:"MONITOR_ENABLE_HEARTBEAT" envDefault:"true"`
}

// DefaultConfig returns production defaults with every behavior enabled.
func DefaultConfig() Config {
	return Config{
		PollInterval:        30 * time.Second,
		ProbeInterval:       15 * time.Second,
		HeartbeatInterval:   60 * time.Second,
		ConflictWindow:      5 * time.Second,
		OperationTimeout:    10 * time.Second,
		EnablePolling:       true,
		EnableNetworkWatch:  true,
		EnableConflictWatch: true,
		EnableHeartbeat:     true,
	}
}
