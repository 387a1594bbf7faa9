// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake network connection for transport tests.

package fake

import (
	"bytes"
	"io"
	"sync"

	"github.com/momentics/hioload-stream/api"
)

// Conn is an in-memory api.NetConn. Reads block until data is fed or the
// connection is closed; writes are captured.
type Conn struct {
	mu         sync.Mutex
	cond       *sync.Cond
	recv       [][]byte
	readErr    error
	sent       bytes.Buffer
	writeLimit int
	writeErr   error
	closed     bool
}

// NewConn creates an open connection.
func NewConn() *Conn {
	c := &Conn{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Feed queues data for the next Read.
func (c *Conn) Feed(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recv = append(c.recv, append([]byte(nil), data...))
	c.cond.Broadcast()
}

// FeedError makes Read fail with err once the queued data is consumed.
func (c *Conn) FeedError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErr = err
	c.cond.Broadcast()
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.recv) == 0 && c.readErr == nil && !c.closed {
		c.cond.Wait()
	}
	if len(c.recv) > 0 {
		n := copy(p, c.recv[0])
		if n == len(c.recv[0]) {
			c.recv = c.recv[1:]
		} else {
			c.recv[0] = c.recv[0][n:]
		}
		return n, nil
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	return 0, io.EOF
}

// SetWriteLimit bounds the bytes accepted per Write. 0 means unbounded.
func (c *Conn) SetWriteLimit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeLimit = n
}

// SetWriteError makes every Write fail with err.
func (c *Conn) SetWriteError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Write implements io.Writer.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, api.ErrStreamClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	n := len(p)
	if c.writeLimit > 0 {
		n = min(n, c.writeLimit)
	}
	c.sent.Write(p[:n])
	return n, nil
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
	return nil
}

// Sent returns a copy of everything written.
func (c *Conn) Sent() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.sent.Bytes()...)
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ api.NetConn = (*Conn)(nil)
