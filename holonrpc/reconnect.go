package holonrpc

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"nhooyr.io/websocket"
)

// onCarrierLost tears down the lost carrier's state and starts a
// reconnect task, unless the client is already closed or a reconnect is
// already running.
func (c *Client) onCarrierLost(lost *websocket.Conn) {
	c.mu.Lock()
	if c.closed || c.reconnecting || c.carrier != lost {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	if c.carrierCancel != nil {
		c.carrierCancel()
	}
	c.carrier = nil
	pending := c.pending
	c.pending = make(map[string]chan pendingResult)
	rawURL := c.url
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- pendingResult{err: ErrNotConnected}
	}

	go c.reconnectLoop(rawURL)
}

// reconnectLoop retries connectOnce with exponential backoff and
// jitter, per spec.md §4.8's "Disconnect + reconnect", until it
// succeeds or the client is closed. There is no elapsed-time cap —
// reconnection is retried indefinitely while the client is open.
func (c *Client) reconnectLoop(rawURL string) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.ReconnectMinDelay
	bo.MaxInterval = c.cfg.ReconnectMaxDelay
	bo.Multiplier = c.cfg.ReconnectFactor
	// Jitter is added on top of each capped delay below, not applied by
	// the library around it.
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	// Start the schedule from ReconnectMinDelay rather than the library
	// default the constructor already installed.
	bo.Reset()

	for {
		if c.isClosed() {
			return
		}

		base := bo.NextBackOff()
		delay := base + time.Duration(rand.Float64()*c.cfg.ReconnectJitter*float64(base))
		timer := time.NewTimer(delay)
		<-timer.C

		if c.isClosed() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HeartbeatTimeout)
		carrier, err := c.connectOnce(ctx, rawURL)
		cancel()
		if err != nil {
			c.logger.Debug("holonrpc: reconnect attempt failed", "error", err)
			continue
		}

		c.logger.Info("holonrpc: reconnected", "url", rawURL)
		c.adoptCarrier(carrier)
		return
	}
}
