package transport

import (
	"errors"
	"io"
	"sync"
)

// Connection is a blocking, full-duplex byte stream produced by a
// RuntimeListener's Accept (or the mem listener's Dial). Reads and writes
// are safe to call concurrently with each other (full duplex); concurrent
// same-direction calls are the caller's responsibility to serialize.
type Connection interface {
	// Read returns up to maxBytes from a single underlying read. A
	// zero-length, nil-error result means the peer reached EOF.
	Read(maxBytes int) ([]byte, error)
	// Write loops until every byte of p has been written, or fails.
	Write(p []byte) error
	// Close is idempotent and respects fd ownership.
	Close() error
}

// conn is the shared implementation behind every Connection variant. The
// four listener types differ only in what reader/writer/closers they
// plug in and whether they set the owns* flags.
type conn struct {
	mu     sync.Mutex
	closed bool

	reader io.Reader
	writer io.Writer

	ownsReader bool
	ownsWriter bool

	closeReader func() error
	closeWriter func() error
}

func newConn(reader io.Reader, writer io.Writer, ownsReader, ownsWriter bool, closeReader, closeWriter func() error) *conn {
	return &conn{
		reader:      reader,
		writer:      writer,
		ownsReader:  ownsReader,
		ownsWriter:  ownsWriter,
		closeReader: closeReader,
		closeWriter: closeWriter,
	}
}

func (c *conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *conn) Read(maxBytes int) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	if maxBytes <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, maxBytes)
	n, err := c.reader.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return []byte{}, nil
	}
	return nil, &IOFailureError{Message: err.Error()}
}

func (c *conn) Write(p []byte) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}

	total := 0
	for total < len(p) {
		n, err := c.writer.Write(p[total:])
		if err != nil {
			return &IOFailureError{Message: err.Error()}
		}
		if n == 0 {
			return &IOFailureError{Message: "zero-byte write"}
		}
		total += n
	}
	return nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.ownsReader && c.closeReader != nil {
		if err := c.closeReader(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.ownsWriter && c.closeWriter != nil {
		if err := c.closeWriter(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
