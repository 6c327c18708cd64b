package transport

// RuntimeListener is a bound, live listener producing accepted
// Connections. It is a tagged union over four concrete variants (tcp,
// unix, stdio, mem) dispatched by ListenRuntime; ws/wss never reach a
// RuntimeListener (see RuntimeUnsupportedError).
type RuntimeListener interface {
	Accept() (Connection, error)
	Close() error
	// BoundURI reports the concrete, post-bind address as a URI string
	// (e.g. a tcp:// listener bound with port 0 reports the kernel-
	// assigned port here).
	BoundURI() string
}

// Listen parses raw into its URI descriptor without binding anything.
// It is the parse-only counterpart to ListenRuntime, referentially
// transparent: Listen(u) always returns the same decoded fields for a
// given well-formed u.
func Listen(raw string) (*URI, error) {
	return Parse(raw)
}

// ListenRuntime parses raw and binds the corresponding runtime listener.
// For ws and wss it returns a *RuntimeUnsupportedError: this package is a
// byte-stream transport substrate, not a WebSocket server — WebSocket
// traffic is served by an external collaborator and consumed client-side
// by holonrpc.Client.
func ListenRuntime(raw string) (RuntimeListener, error) {
	u, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case SchemeTCP:
		return newTCPListener(u)
	case SchemeUnix:
		return newUnixListener(u)
	case SchemeStdio:
		return newStdioListener(), nil
	case SchemeMem:
		return registerMemListener(u.Path)
	case SchemeWS, SchemeWSS:
		return nil, &RuntimeUnsupportedError{
			Scheme: string(u.Scheme),
			Reason: "ws/wss are served by an external collaborator; this SDK only dials WebSockets, via holonrpc.Client",
		}
	default:
		return nil, NewURIError(URIErrCodeUnsupported, raw, "unknown scheme \""+string(u.Scheme)+"\"")
	}
}
