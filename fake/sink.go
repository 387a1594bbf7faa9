// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the stream interfaces.

package fake

import (
	"bytes"

	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// Sink records everything written to it. It can be made to accept only a
// limited number of bytes per write, or nothing at all, to exercise
// back-pressure.
type Sink struct {
	data     bytes.Buffer
	writes   int
	limit    int
	blocked  bool
	ended    bool
	closed   bool
	writable stream.WritableCallback
	closedCb stream.CompletedCallback
}

// NewSink returns an open sink that accepts everything.
func NewSink() *Sink { return &Sink{} }

// Write takes as many bytes as the current limit allows.
func (s *Sink) Write(data *buffer.Chain) {
	if s.blocked || s.closed {
		return
	}
	s.writes++
	n := data.Remaining()
	if s.limit > 0 {
		n = min(n, s.limit)
	}
	p, _ := data.Consume(n)
	s.data.Write(p)
}

// SetLimit bounds the bytes taken per write. 0 means unbounded.
func (s *Sink) SetLimit(n int) { s.limit = n }

// Block makes the sink refuse writes until Unblock.
func (s *Sink) Block() { s.blocked = true }

// Unblock accepts writes again and fires the writable callback.
func (s *Sink) Unblock() {
	s.blocked = false
	if s.writable != nil {
		s.writable()
	}
}

// Bytes returns everything written so far.
func (s *Sink) Bytes() []byte { return s.data.Bytes() }

// String returns everything written so far.
func (s *Sink) String() string { return s.data.String() }

// Writes returns the number of accepted Write calls.
func (s *Sink) Writes() int { return s.writes }

// Ended reports whether End was called.
func (s *Sink) Ended() bool { return s.ended }

func (s *Sink) SetWritableCallback(cb stream.WritableCallback) { s.writable = cb }

func (s *Sink) WritableCallback() stream.WritableCallback { return s.writable }

func (s *Sink) IsOpen() bool { return !s.closed && !s.ended }

// End records the end and reports a clean close.
func (s *Sink) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.Close(nil)
}

// Close closes the sink with err.
func (s *Sink) Close(err error) {
	if s.closed {
		return
	}
	s.closed = true
	if s.closedCb != nil {
		s.closedCb(err)
	}
}

func (s *Sink) SetClosedCallback(cb stream.CompletedCallback) { s.closedCb = cb }

func (s *Sink) ClosedCallback() stream.CompletedCallback { return s.closedCb }

var _ stream.Sink = (*Sink)(nil)

// Collector is a DataCallback target that records emitted bytes and the end
// outcome.
type Collector struct {
	data    bytes.Buffer
	calls   int
	ends    int
	err     error
	takeMax int
}

// Attach registers c as em's data and end callbacks.
func (c *Collector) Attach(em stream.Emitter) *Collector {
	em.SetDataCallback(c.OnData)
	em.SetEndCallback(c.OnEnd)
	return c
}

// TakeAtMost makes OnData consume at most n bytes per call. 0 takes all.
func (c *Collector) TakeAtMost(n int) { c.takeMax = n }

// OnData records data.
func (c *Collector) OnData(_ stream.Emitter, data *buffer.Chain) {
	c.calls++
	n := data.Remaining()
	if c.takeMax > 0 {
		n = min(n, c.takeMax)
	}
	p, _ := data.Consume(n)
	c.data.Write(p)
}

// OnEnd records the end of stream.
func (c *Collector) OnEnd(err error) {
	c.ends++
	c.err = err
}

func (c *Collector) String() string { return c.data.String() }

func (c *Collector) Bytes() []byte { return c.data.Bytes() }

// Calls returns the number of data deliveries.
func (c *Collector) Calls() int { return c.calls }

// Ends returns how many times the end callback fired.
func (c *Collector) Ends() int { return c.ends }

// Err returns the last end outcome.
func (c *Collector) Err() error { return c.err }
