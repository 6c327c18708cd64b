package holonrpc

import (
	"context"
	"time"
)

// heartbeatLoop issues a periodic rpc.heartbeat invoke over the current
// carrier. Any failure — timeout or transport error — is treated as
// carrier loss and hands off to the reconnect task, per spec.md §4.8's
// "Heartbeat task".
func (c *Client) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hbCtx, cancel := context.WithTimeout(ctx, c.cfg.HeartbeatTimeout)
			_, err := c.Invoke(hbCtx, HeartbeatMethod, map[string]any{})
			cancel()
			if err != nil {
				c.logger.Debug("holonrpc: heartbeat failed", "error", err)
				c.mu.Lock()
				carrier := c.carrier
				c.mu.Unlock()
				if carrier != nil {
					c.onCarrierLost(carrier)
				}
				return
			}
			c.mu.Lock()
			c.heartbeatCount++
			c.mu.Unlock()
		}
	}
}
