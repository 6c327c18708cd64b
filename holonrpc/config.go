package holonrpc

import "time"

// Subprotocol is the WebSocket subprotocol token negotiated by every
// Holon-RPC carrier.
const Subprotocol = "holon-rpc"

// HeartbeatMethod is the reserved method name used for liveness checks.
const HeartbeatMethod = "rpc.heartbeat"

// Config configures a Client's heartbeat and reconnect behavior.
type Config struct {
	// HeartbeatInterval is how often an rpc.heartbeat invoke is issued.
	HeartbeatInterval time.Duration
	// HeartbeatTimeout bounds how long a heartbeat invoke may take
	// before it is treated as a carrier failure.
	HeartbeatTimeout time.Duration

	// ReconnectMinDelay is the first reconnect backoff delay.
	ReconnectMinDelay time.Duration
	// ReconnectMaxDelay caps the reconnect backoff delay.
	ReconnectMaxDelay time.Duration
	// ReconnectFactor is the exponential backoff multiplier.
	ReconnectFactor float64
	// ReconnectJitter is the fraction of the base delay added as
	// uniform random jitter.
	ReconnectJitter float64
}

// DefaultConfig returns the configuration used when a caller does not
// provide one, following the defaults named in spec.md §4.8.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		ReconnectMinDelay: 500 * time.Millisecond,
		ReconnectMaxDelay: 30 * time.Second,
		ReconnectFactor:   2.0,
		ReconnectJitter:   0.1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.ReconnectMinDelay <= 0 {
		c.ReconnectMinDelay = d.ReconnectMinDelay
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = d.ReconnectMaxDelay
	}
	if c.ReconnectFactor <= 0 {
		c.ReconnectFactor = d.ReconnectFactor
	}
	if c.ReconnectJitter < 0 {
		c.ReconnectJitter = d.ReconnectJitter
	}
	return c
}
