package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// maxUnixPathLen is the platform's sun_path capacity, minus one byte for
// the NUL terminator the kernel appends.
var maxUnixPathLen = len(unix.RawSockaddrUnix{}.Path) - 1

type unixListener struct {
	mu     sync.Mutex
	closed atomic.Bool

	ln   net.Listener
	path string
}

func newUnixListener(u *URI) (*unixListener, error) {
	if len(u.Path) > maxUnixPathLen {
		return nil, &ListenFailedError{Message: "unix socket path exceeds platform limit of " + strconv.Itoa(maxUnixPathLen) + " bytes"}
	}

	// Unlink any stale socket left behind by a previous run.
	_ = os.Remove(u.Path)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "unix", u.Path)
	if err != nil {
		return nil, &ListenFailedError{Message: err.Error()}
	}

	return &unixListener{ln: ln, path: u.Path}, nil
}

func (l *unixListener) BoundURI() string {
	u := &URI{Scheme: SchemeUnix, Path: l.path}
	return u.String()
}

func (l *unixListener) Accept() (Connection, error) {
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

func (l *unixListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.Load() {
		return nil
	}
	l.closed.Store(true)
	err := l.ln.Close()
	_ = os.Remove(l.path)
	return err
}
