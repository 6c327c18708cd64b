package holonrpc

import (
	"errors"
	"fmt"
)

// Standard and Holon-RPC-specific JSON-RPC error codes, per spec.md §6/§7.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	// CodeHandlerException is used when a registered handler panics or
	// returns a plain (non-RPCError) error.
	CodeHandlerException = 13
)

// ErrNotConnected is returned by Invoke when there is no live carrier,
// and completes every pending invoke when the carrier is lost.
var ErrNotConnected = errors.New("not-connected")

// ErrTimeout is returned by Invoke when the caller's wait (or the
// heartbeat's own deadline) elapses before a response arrives.
var ErrTimeout = errors.New("timeout")

// InvalidURLError is returned by Connect when url does not parse as a
// WebSocket URL.
type InvalidURLError struct {
	URL     string
	Message string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid-url: %q: %s", e.URL, e.Message)
}

// ProtocolError covers both "method is required" on Invoke and
// subprotocol negotiation failures on Connect.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return "protocol-error: " + e.Message }

// SerializationError describes a JSON decode failure of an inbound
// frame. The receive loop does not return it: a frame that fails to
// decode is dropped and the loop goes on reading.
type SerializationError struct {
	Message string
}

func (e *SerializationError) Error() string { return "serialization: " + e.Message }

// RPCError is a structured JSON-RPC error response surfaced to an
// Invoke caller, or returned by a server-call handler to be sent back
// to the peer verbatim.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func NewRPCError(code int, message string, data any) *RPCError {
	return &RPCError{Code: code, Message: message, Data: data}
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
