// Package holonrpc implements a bidirectional JSON-RPC 2.0 client that
// runs over a WebSocket carrier negotiated with the "holon-rpc"
// subprotocol. Either side may issue requests; the client maintains a
// liveness heartbeat and transparently reconnects with exponential
// backoff and jitter on carrier loss.
package holonrpc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"nhooyr.io/websocket"
)

// Handler answers a server-originated request for one method name. It
// may return an *RPCError to control the exact code/message/data sent
// back; any other error is reported to the peer as CodeHandlerException.
type Handler func(ctx context.Context, params map[string]any) (map[string]any, error)

type pendingResult struct {
	result map[string]any
	err    error
}

// Client is a Holon-RPC peer. The zero value is not usable; construct
// one with NewClient. A Client is safe for concurrent use — Register,
// Connect, Invoke and Close may all be called from different goroutines.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	url           string
	carrier       *websocket.Conn
	carrierCancel context.CancelFunc
	pending       map[string]chan pendingResult
	handlers      map[string]Handler
	nextID        uint64
	closed        bool
	reconnecting  bool

	heartbeatCount uint64
}

// NewClient creates a Client. logger may be nil, in which case
// slog.Default() is used.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		pending:  make(map[string]chan pendingResult),
		handlers: make(map[string]Handler),
	}
}

// Register installs a handler for server-originated calls to method.
// Safe to call before or after Connect; handlers live in the Client, not
// the carrier, so they survive a reconnect unchanged.
func (c *Client) Register(method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = h
}

// Connect opens the WebSocket carrier and starts the receive and
// heartbeat tasks. It fails with *InvalidURLError if rawURL does not
// parse, or *ProtocolError if the server does not select "holon-rpc".
func (c *Client) Connect(ctx context.Context, rawURL string) error {
	if _, err := url.Parse(rawURL); err != nil {
		return &InvalidURLError{URL: rawURL, Message: err.Error()}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.url = rawURL
	c.mu.Unlock()

	carrier, err := c.connectOnce(ctx, rawURL)
	if err != nil {
		return err
	}

	c.adoptCarrier(carrier)
	return nil
}

// connectOnce performs a single dial attempt and subprotocol check. It
// never mutates Client state, so it is safe to call from the reconnect
// task without holding the lock.
func (c *Client) connectOnce(ctx context.Context, rawURL string) (*websocket.Conn, error) {
	carrier, resp, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Message: err.Error()}
	}

	negotiated, ok := negotiatedSubprotocol(ctx, carrier, resp)
	if !ok || negotiated != Subprotocol {
		_ = carrier.Close(websocket.StatusProtocolError, "server did not negotiate holon-rpc")
		return nil, &ProtocolError{Message: "server did not negotiate holon-rpc"}
	}

	return carrier, nil
}

// adoptCarrier installs carrier as the live carrier and starts its
// receive and heartbeat tasks under a fresh, carrier-scoped context.
func (c *Client) adoptCarrier(carrier *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.carrier = carrier
	c.carrierCancel = cancel
	c.reconnecting = false
	c.mu.Unlock()

	go c.receiveLoop(ctx, carrier)
	go c.heartbeatLoop(ctx)
}

// Invoke sends a JSON-RPC request and waits for its response. params may
// be nil. The context bounds how long Invoke waits for a reply —
// expiring it surfaces ErrTimeout, matching spec.md §4.8's "the caller
// may wrap invoke with its own timeout".
func (c *Client) Invoke(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	if method == "" {
		return nil, &ProtocolError{Message: "method is required"}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	carrier := c.carrier
	if carrier == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.nextID++
	id := fmt.Sprintf("c%d", c.nextID)
	resultCh := make(chan pendingResult, 1)
	c.pending[id] = resultCh
	c.mu.Unlock()

	payload, err := newRequestEnvelope(id, method, params)
	if err != nil {
		c.removePending(id)
		return nil, err
	}

	if err := carrier.Write(ctx, websocket.MessageText, payload); err != nil {
		c.removePending(id)
		return nil, ErrNotConnected
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return res.result, nil
	case <-ctx.Done():
		c.removePending(id)
		return nil, ErrTimeout
	}
}

func (c *Client) removePending(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close marks the client closed, cancels all background tasks, fails
// every pending invoke with ErrNotConnected and closes the carrier.
// Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	carrier := c.carrier
	c.carrier = nil
	pending := c.pending
	c.pending = make(map[string]chan pendingResult)

	if c.carrierCancel != nil {
		c.carrierCancel()
	}
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- pendingResult{err: ErrNotConnected}
	}

	if carrier != nil {
		_ = carrier.Close(websocket.StatusNormalClosure, "client closed")
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// HeartbeatCount reports how many heartbeat invokes have succeeded on
// the current and all prior carriers. Intended for tests and metrics,
// not for controlling client behavior.
func (c *Client) HeartbeatCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heartbeatCount
}

// negotiatedSubprotocol determines the subprotocol the server selected.
// The response headers are normally already available the instant Dial
// returns (a handshake-complete event, in spec.md §9's terms); the short
// poll is a defensive fallback for platforms/transports where the
// header is not yet visible.
func negotiatedSubprotocol(ctx context.Context, carrier *websocket.Conn, resp *http.Response) (string, bool) {
	if p := carrier.Subprotocol(); p != "" {
		return p, true
	}
	if resp != nil {
		for k, v := range resp.Header {
			if strings.EqualFold(k, "Sec-WebSocket-Protocol") && len(v) > 0 {
				return v[0], true
			}
		}
	}
	return pollSubprotocol(ctx, carrier)
}
