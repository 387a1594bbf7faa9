// File: transport/writer_sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"io"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// WriterSink is a blocking Sink over an io.Writer, for files and standard
// streams. Every Write drains the chain completely or closes the sink with
// the write error. End closes w when it is an io.Closer.
type WriterSink struct {
	w        io.Writer
	written  int64
	writable stream.WritableCallback
	closedCb stream.CompletedCallback
	closed   bool
	err      error
	fired    bool
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink { return &WriterSink{w: w} }

// Written returns the bytes written so far.
func (s *WriterSink) Written() int64 { return s.written }

func (s *WriterSink) Write(data *buffer.Chain) {
	if s.closed {
		return
	}
	n, err := data.WriteTo(s.w)
	s.written += n
	if err != nil {
		data.Recycle()
		s.close(api.NewStreamError("write", err))
	}
}

func (s *WriterSink) SetWritableCallback(cb stream.WritableCallback) { s.writable = cb }

func (s *WriterSink) WritableCallback() stream.WritableCallback { return s.writable }

func (s *WriterSink) IsOpen() bool { return !s.closed }

// End closes the underlying writer if it can be closed.
func (s *WriterSink) End() {
	if s.closed {
		return
	}
	var err error
	if c, ok := s.w.(io.Closer); ok {
		err = c.Close()
	}
	s.close(err)
}

func (s *WriterSink) close(err error) {
	s.closed, s.err = true, err
	s.fire()
}

func (s *WriterSink) fire() {
	if s.closed && !s.fired && s.closedCb != nil {
		s.fired = true
		s.closedCb(s.err)
	}
}

func (s *WriterSink) SetClosedCallback(cb stream.CompletedCallback) {
	s.closedCb = cb
	s.fire()
}

func (s *WriterSink) ClosedCallback() stream.CompletedCallback { return s.closedCb }

var _ stream.Sink = (*WriterSink)(nil)
