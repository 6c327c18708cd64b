package holonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// testServer is a minimal in-process Holon-RPC peer used to exercise
// Client without a real network service, grounded on the reference
// echo.v1.Echo/Ping test server shipped alongside the spec.
type testServer struct {
	t        *testing.T
	listener net.Listener
	http     *http.Server
	url      string

	mu      sync.Mutex
	conns   []*websocket.Conn
	methods map[string]func(params map[string]any) (map[string]any, error)

	refuseSubprotocol bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &testServer{
		t:        t,
		listener: ln,
		methods:  make(map[string]func(params map[string]any) (map[string]any, error)),
	}
	s.url = fmt.Sprintf("ws://%s/rpc", ln.Addr().String())

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleUpgrade)
	s.http = &http.Server{Handler: mux}

	go func() {
		_ = s.http.Serve(ln)
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.http.Shutdown(ctx)
	})

	return s
}

func (s *testServer) handleMethod(name string, fn func(params map[string]any) (map[string]any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = fn
}

func (s *testServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if !s.refuseSubprotocol {
		opts.Subprotocols = []string{Subprotocol}
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if !env.isRequest() {
			continue
		}

		s.mu.Lock()
		fn, ok := s.methods[env.Method]
		s.mu.Unlock()

		if env.Method == HeartbeatMethod {
			s.reply(ctx, conn, env.ID, map[string]any{})
			continue
		}
		if !ok {
			s.replyError(ctx, conn, env.ID, CodeMethodNotFound, "method not found: "+env.Method)
			continue
		}

		result, err := fn(decodeParams(env.Params))
		if err != nil {
			s.replyError(ctx, conn, env.ID, CodeInternalError, err.Error())
			continue
		}
		s.reply(ctx, conn, env.ID, result)
	}
}

func (s *testServer) reply(ctx context.Context, conn *websocket.Conn, id *string, result map[string]any) {
	payload, err := newResultEnvelope(id, result)
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func (s *testServer) replyError(ctx context.Context, conn *websocket.Conn, id *string, code int, message string) {
	payload, err := newErrorEnvelope(id, code, message, nil)
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

// invoke sends a server-to-client request over the most recently
// accepted connection and returns the decoded response envelope.
func (s *testServer) invoke(ctx context.Context, id, method string, params map[string]any) (*envelope, error) {
	s.mu.Lock()
	var conn *websocket.Conn
	if len(s.conns) > 0 {
		conn = s.conns[len(s.conns)-1]
	}
	s.mu.Unlock()
	if conn == nil {
		return nil, fmt.Errorf("no accepted connection yet")
	}

	payload, err := newRequestEnvelope(id, method, params)
	if err != nil {
		return nil, err
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return nil, err
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// stripIDField removes the "id" key from an encoded envelope, turning a
// request into a wire-level notification. newRequestEnvelope always
// carries a non-nil id pointer, so tests that need a true notification
// go through this rather than through the public API.
func stripIDField(t *testing.T, payload []byte) []byte {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("stripIDField unmarshal: %v", err)
	}
	delete(m, "id")
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("stripIDField marshal: %v", err)
	}
	return out
}

func writeRaw(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	return conn.Write(ctx, websocket.MessageText, payload)
}

func (s *testServer) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.Close(websocket.StatusNormalClosure, "forced close")
	}
	s.conns = nil
}
