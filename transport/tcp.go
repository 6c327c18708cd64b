package transport

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// tcpListener binds an IPv4/IPv6 stream socket. It owns the listening fd
// until Close.
type tcpListener struct {
	mu     sync.Mutex
	closed atomic.Bool

	ln        net.Listener
	boundHost string
	boundPort int
}

const tcpListenBacklog = 16

func newTCPListener(u *URI) (*tcpListener, error) {
	addr := net.JoinHostPort(u.Host, strconv.Itoa(u.Port))

	candidates, err := resolveCandidates(u.Host)
	if err != nil {
		return nil, &ListenFailedError{Message: err.Error()}
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var setErr error
			ctrlErr := c.Control(func(fd uintptr) {
				setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if ctrlErr != nil {
				return ctrlErr
			}
			return setErr
		},
	}

	var lastErr error
	for _, host := range candidates {
		candidateAddr := net.JoinHostPort(host, strconv.Itoa(u.Port))
		ln, lErr := lc.Listen(context.Background(), "tcp", candidateAddr)
		if lErr != nil {
			lastErr = lErr
			continue
		}

		tcpAddr, ok := ln.Addr().(*net.TCPAddr)
		if !ok {
			_ = ln.Close()
			lastErr = errors.New("listener did not return a TCP address")
			continue
		}

		return &tcpListener{ln: ln, boundHost: tcpAddr.IP.String(), boundPort: tcpAddr.Port}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no candidate addresses for " + addr)
	}
	return nil, &ListenFailedError{Message: lastErr.Error()}
}

// resolveCandidates expands host into the list of literal addresses to
// try binding, mirroring passive-flag name resolution. An empty host
// (bind-all) and already-literal IPs are returned unchanged.
func resolveCandidates(host string) ([]string, error) {
	if host == "" || net.ParseIP(host) != nil {
		return []string{host}, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, errors.New("no addresses found for host " + host)
	}

	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.IP.String())
	}
	return out, nil
}

// BoundURI reports the concretely bound address, e.g. after port 0 was
// requested. IPv6 hosts are re-bracketed.
func (l *tcpListener) BoundURI() string {
	u := &URI{Scheme: SchemeTCP, Host: l.boundHost, Port: l.boundPort}
	return u.String()
}

func (l *tcpListener) Accept() (Connection, error) {
	for {
		c, err := l.ln.Accept()
		if err == nil {
			return newNetConn(c), nil
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if l.closed.Load() {
			return nil, ErrListenerClosed
		}
		return nil, &AcceptFailedError{Message: err.Error()}
	}
}

func (l *tcpListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.Load() {
		return nil
	}
	l.closed.Store(true)
	return l.ln.Close()
}

// newNetConn wraps a net.Conn (TCP or Unix) where the read and write
// sides are the same underlying fd: only one Close call is ever issued.
func newNetConn(c net.Conn) Connection {
	return newConn(c, c, true, true, c.Close, nil)
}
