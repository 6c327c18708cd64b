package transport

import (
	"net"
	"strconv"
)

// Dial opens a Connection to a bound runtime listener. It is the client
// side of tcp, unix and mem — the transports that actually need an
// explicit dial to produce a connection (stdio has exactly one implicit
// connection, and ws/wss are out of scope for this package).
func Dial(raw string) (Connection, error) {
	u, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case SchemeTCP:
		c, dErr := net.Dial("tcp", net.JoinHostPort(u.Host, strconv.Itoa(u.Port)))
		if dErr != nil {
			return nil, &IOFailureError{Message: dErr.Error()}
		}
		return newNetConn(c), nil
	case SchemeUnix:
		c, dErr := net.Dial("unix", u.Path)
		if dErr != nil {
			return nil, &IOFailureError{Message: dErr.Error()}
		}
		return newNetConn(c), nil
	case SchemeMem:
		l, ok := lookupMemListener(u.Path)
		if !ok {
			return nil, &ListenFailedError{Message: "no mem listener named \"" + u.Path + "\" is bound"}
		}
		return l.Dial()
	default:
		return nil, &RuntimeUnsupportedError{
			Scheme: string(u.Scheme),
			Reason: "transport.Dial only supports tcp, unix and mem",
		}
	}
}
