package transport

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errUnterminatedBracket  = errors.New("unterminated \"[\" in host")
	errTrailingAfterBracket = errors.New("unexpected characters after \"]\"")
)

// Scheme is one of the six URI schemes this package and holonrpc recognize.
type Scheme string

const (
	SchemeTCP   Scheme = "tcp"
	SchemeUnix  Scheme = "unix"
	SchemeStdio Scheme = "stdio"
	SchemeMem   Scheme = "mem"
	SchemeWS    Scheme = "ws"
	SchemeWSS   Scheme = "wss"
)

const (
	// DefaultTCPPort is used for tcp:// URIs with no port.
	DefaultTCPPort = 9090
	// DefaultWSPort is used for ws:// URIs with no port.
	DefaultWSPort = 80
	// DefaultWSSPort is used for wss:// URIs with no port.
	DefaultWSSPort = 443
	// DefaultWSPath is used for ws/wss URIs with no path.
	DefaultWSPath = "/grpc"
)

// URI is an immutable, parsed scheme-tagged address. Callers should treat
// every field as read-only; there are no setters on purpose.
type URI struct {
	// Raw is the exact string that was parsed.
	Raw string

	Scheme Scheme

	// Host is set for tcp, ws and wss.
	Host string
	// Port is set for tcp, ws and wss.
	Port int
	// Path is set for unix (the socket path), mem (the listener name,
	// which may be empty) and ws/wss (the HTTP path).
	Path string
}

// SchemeOf returns the prefix of raw before "://", or raw itself if there
// is no "://" separator. It never fails — it is a syntactic lookup only,
// unlike Parse.
func SchemeOf(raw string) string {
	if idx := strings.Index(raw, "://"); idx != -1 {
		return raw[:idx]
	}
	return raw
}

// Parse decodes a raw URI string into a URI, or fails with a *URIError of
// kind unsupported-uri (unrecognized scheme) or invalid-uri (recognized
// scheme, malformed content).
func Parse(raw string) (*URI, error) {
	idx := strings.Index(raw, "://")
	if idx == -1 {
		return nil, NewURIError(URIErrCodeUnsupported, raw, "missing \"://\" separator")
	}

	scheme := Scheme(raw[:idx])
	rest := raw[idx+3:]

	switch scheme {
	case SchemeTCP:
		return parseHostPort(raw, rest, SchemeTCP, DefaultTCPPort, "")
	case SchemeUnix:
		return parseUnix(raw, rest)
	case SchemeStdio:
		return parseStdio(raw, rest)
	case SchemeMem:
		return &URI{Raw: raw, Scheme: SchemeMem, Path: rest}, nil
	case SchemeWS:
		return parseHostPort(raw, rest, SchemeWS, DefaultWSPort, DefaultWSPath)
	case SchemeWSS:
		return parseHostPort(raw, rest, SchemeWSS, DefaultWSSPort, DefaultWSPath)
	default:
		return nil, NewURIError(URIErrCodeUnsupported, raw, "unknown scheme \""+string(scheme)+"\"")
	}
}

func parseStdio(raw, rest string) (*URI, error) {
	if rest != "" {
		return nil, NewURIError(URIErrCodeInvalid, raw, "stdio:// takes no host, port or path")
	}
	return &URI{Raw: raw, Scheme: SchemeStdio}, nil
}

func parseUnix(raw, rest string) (*URI, error) {
	if rest == "" {
		return nil, NewURIError(URIErrCodeInvalid, raw, "unix:// requires a non-empty path")
	}
	return &URI{Raw: raw, Scheme: SchemeUnix, Path: rest}, nil
}

// parseHostPort handles tcp/ws/wss, which share a HOST:PORT[/PATH] grammar
// (PATH only applying to ws/wss).
func parseHostPort(raw, rest string, scheme Scheme, defaultPort int, defaultPath string) (*URI, error) {
	hostPort := rest
	path := ""
	if defaultPath != "" {
		if slash := strings.IndexByte(rest, '/'); slash != -1 {
			hostPort = rest[:slash]
			path = rest[slash:]
		}
	}

	host, portStr, err := splitHostPort(hostPort)
	if err != nil {
		return nil, NewURIError(URIErrCodeInvalid, raw, err.Error())
	}

	port := defaultPort
	if portStr != "" {
		p, convErr := strconv.Atoi(portStr)
		if convErr != nil || p < 0 || p > 65535 {
			return nil, NewURIError(URIErrCodeInvalid, raw, "invalid port \""+portStr+"\"")
		}
		port = p
	}

	if scheme == SchemeTCP && host == "" {
		host = "0.0.0.0"
	}
	if path == "" {
		path = defaultPath
	}

	return &URI{Raw: raw, Scheme: scheme, Host: host, Port: port, Path: path}, nil
}

// splitHostPort splits a HOST:PORT string that may omit the port and may
// bracket an IPv6 literal ("[::1]:9090", "[::1]", "host", "host:9090").
// The returned host never has brackets.
func splitHostPort(hostPort string) (host, port string, err error) {
	if hostPort == "" {
		return "", "", nil
	}

	if hostPort[0] == '[' {
		closeIdx := strings.IndexByte(hostPort, ']')
		if closeIdx == -1 {
			return "", "", errUnterminatedBracket
		}
		host = hostPort[1:closeIdx]
		remainder := hostPort[closeIdx+1:]
		if remainder == "" {
			return host, "", nil
		}
		if remainder[0] != ':' {
			return "", "", errTrailingAfterBracket
		}
		return host, remainder[1:], nil
	}

	// Unbracketed: at most one colon is a HOST:PORT split; an address
	// with more than one colon and no brackets is taken whole as an
	// IPv6 host with no port (it must be bracketed to carry a port).
	if strings.Count(hostPort, ":") > 1 {
		return hostPort, "", nil
	}

	if colon := strings.IndexByte(hostPort, ':'); colon != -1 {
		return hostPort[:colon], hostPort[colon+1:], nil
	}

	return hostPort, "", nil
}

// String renders the URI back into its wire form. Well-formed inputs
// satisfy Parse(u.String()) == u (field-for-field, ignoring Raw).
func (u *URI) String() string {
	switch u.Scheme {
	case SchemeTCP, SchemeWS, SchemeWSS:
		host := u.Host
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		s := string(u.Scheme) + "://" + host + ":" + strconv.Itoa(u.Port)
		if u.Scheme != SchemeTCP {
			s += u.Path
		}
		return s
	case SchemeUnix:
		return string(u.Scheme) + "://" + u.Path
	case SchemeMem:
		return string(u.Scheme) + "://" + u.Path
	case SchemeStdio:
		return string(u.Scheme) + "://"
	default:
		return u.Raw
	}
}
