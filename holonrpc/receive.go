package holonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"nhooyr.io/websocket"
)

// pollSubprotocol falls back to asking the carrier itself for its
// negotiated subprotocol a bounded number of times, for WebSocket
// implementations where Subprotocol() is not yet populated the instant
// Dial returns.
func pollSubprotocol(ctx context.Context, carrier *websocket.Conn) (string, bool) {
	const attempts = 20
	for i := 0; i < attempts; i++ {
		if p := carrier.Subprotocol(); p != "" {
			return p, true
		}
		select {
		case <-ctx.Done():
			return "", false
		default:
		}
	}
	return "", false
}

// receiveLoop reads frames off carrier until it closes or ctx is
// canceled, dispatching each to the request or response path. On
// carrier loss it triggers the reconnect task and returns.
func (c *Client) receiveLoop(ctx context.Context, carrier *websocket.Conn) {
	for {
		_, data, err := carrier.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || c.isClosed() {
				return
			}
			c.onCarrierLost(carrier)
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch {
		case env.isRequest():
			go c.handleRequest(ctx, carrier, env)
		case env.isResponse():
			c.handleResponseEnvelope(env)
		default:
			// Neither a request nor a well-formed response: drop, per
			// spec.md §4.8's "otherwise drop the frame".
		}
	}
}

// handleRequest answers a single server-originated call, including the
// reserved heartbeat echo and the standard JSON-RPC error taxonomy.
// Notifications (no id) never receive a reply, on any branch, even on
// failure.
func (c *Client) handleRequest(ctx context.Context, carrier *websocket.Conn, env envelope) {
	if env.JSONRPC != "2.0" {
		if env.ID != nil {
			c.sendError(ctx, carrier, env.ID, CodeInvalidRequest, "invalid jsonrpc version", nil)
		}
		return
	}

	if env.Method == HeartbeatMethod {
		if env.ID != nil {
			c.sendResult(ctx, carrier, env.ID, map[string]any{})
		}
		return
	}

	if env.ID != nil && !strings.HasPrefix(*env.ID, "s") {
		c.sendError(ctx, carrier, env.ID, CodeInvalidRequest, "server-originated id must start with \"s\"", nil)
		return
	}

	c.mu.Lock()
	handler, ok := c.handlers[env.Method]
	c.mu.Unlock()
	if !ok {
		if env.ID != nil {
			c.sendError(ctx, carrier, env.ID, CodeMethodNotFound, "method not found: "+env.Method, nil)
		}
		return
	}

	result, err := c.invokeHandlerSafely(ctx, handler, decodeParams(env.Params))

	// A notification (no id) never receives a reply, regardless of
	// outcome.
	if env.ID == nil {
		return
	}

	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			c.sendError(ctx, carrier, env.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
		c.sendError(ctx, carrier, env.ID, CodeHandlerException, err.Error(), nil)
		return
	}

	c.sendResult(ctx, carrier, env.ID, result)
}

// invokeHandlerSafely recovers a handler panic into a plain error so a
// single misbehaving handler cannot take down the receive loop.
func (c *Client) invokeHandlerSafely(ctx context.Context, h Handler, params map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewRPCError(CodeHandlerException, "handler panic", nil)
			c.logger.Error("holonrpc: handler panicked", "panic", r)
		}
	}()
	return h(ctx, params)
}

func (c *Client) sendResult(ctx context.Context, carrier *websocket.Conn, id *string, result map[string]any) {
	payload, err := newResultEnvelope(id, result)
	if err != nil {
		c.logger.Error("holonrpc: encode result", "error", err)
		return
	}
	if err := carrier.Write(ctx, websocket.MessageText, payload); err != nil {
		c.logger.Debug("holonrpc: write result failed", "error", err)
	}
}

func (c *Client) sendError(ctx context.Context, carrier *websocket.Conn, id *string, code int, message string, data any) {
	payload, err := newErrorEnvelope(id, code, message, data)
	if err != nil {
		c.logger.Error("holonrpc: encode error", "error", err)
		return
	}
	if err := carrier.Write(ctx, websocket.MessageText, payload); err != nil {
		c.logger.Debug("holonrpc: write error failed", "error", err)
	}
}

// handleResponseEnvelope resolves the pending invoke matching env.ID,
// applying the default code/message spec.md §4.8b requires when the
// server's error response omits them.
func (c *Client) handleResponseEnvelope(env envelope) {
	if env.ID == nil {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[*env.ID]
	if ok {
		delete(c.pending, *env.ID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if env.Error != nil {
		code := CodeInternalError
		if env.Error.Code != nil {
			code = *env.Error.Code
		}
		message := "internal error"
		if env.Error.Message != nil {
			message = *env.Error.Message
		}
		ch <- pendingResult{err: NewRPCError(code, message, decodeErrorData(env.Error.Data))}
		return
	}

	ch <- pendingResult{result: decodeParams(env.Result)}
}
