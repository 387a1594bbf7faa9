// File: core/stream/buffered_sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"github.com/momentics/hioload-stream/core/buffer"
)

// BufferedSink absorbs what its downstream cannot take yet and writes it out
// as the downstream becomes writable. Once more than MaxBuffer bytes are
// held, Write leaves the rest with the caller.
type BufferedSink struct {
	downstream Sink
	pending    *buffer.Chain
	maxBuffer  int
	writable   WritableCallback
	closed     completion
	ending     bool
	endPending Continuation
}

// NewBufferedSink wraps downstream. The holding chain obtains segments from
// alloc.
func NewBufferedSink(downstream Sink, alloc buffer.Allocator) *BufferedSink {
	b := &BufferedSink{
		downstream: downstream,
		pending:    buffer.NewChain(alloc),
	}
	downstream.SetWritableCallback(b.onDownstreamWritable)
	downstream.SetClosedCallback(b.Fail)
	return b
}

// Downstream returns the wrapped sink.
func (b *BufferedSink) Downstream() Sink { return b.downstream }

// SetMaxBuffer bounds the bytes held. n <= 0 means no bound.
func (b *BufferedSink) SetMaxBuffer(n int) { b.maxBuffer = n }

func (b *BufferedSink) MaxBuffer() int { return b.maxBuffer }

// Buffered returns the number of bytes waiting for the downstream.
func (b *BufferedSink) Buffered() int { return b.pending.Remaining() }

// IsBuffering reports whether writes are currently queued behind held bytes.
func (b *BufferedSink) IsBuffering() bool { return b.pending.HasRemaining() }

func (b *BufferedSink) full() bool {
	return b.maxBuffer > 0 && b.pending.Remaining() >= b.maxBuffer
}

// Write hands data to the downstream, holding whatever it refuses up to the
// buffer bound.
func (b *BufferedSink) Write(data *buffer.Chain) {
	b.write(data, false)
}

// write with force set holds every refused byte regardless of the bound.
func (b *BufferedSink) write(data *buffer.Chain, force bool) {
	if data == nil || b.ending {
		return
	}
	if !b.pending.HasRemaining() {
		b.downstream.Write(data)
	}
	if !data.HasRemaining() {
		return
	}
	take := data.Remaining()
	if !force && b.maxBuffer > 0 {
		take = min(take, max(0, b.maxBuffer-b.pending.Remaining()))
	}
	if take == data.Remaining() {
		b.pending.AppendChain(data)
		return
	}
	// Split cannot fail: take is within Remaining.
	_ = data.Split(b.pending, take)
}

func (b *BufferedSink) onDownstreamWritable() {
	if b.pending.HasRemaining() {
		b.downstream.Write(b.pending)
		if b.pending.HasRemaining() {
			return
		}
	}
	if b.endPending.Fire() {
		return
	}
	if b.writable != nil {
		b.writable()
	}
}

func (b *BufferedSink) SetWritableCallback(cb WritableCallback) { b.writable = cb }

func (b *BufferedSink) WritableCallback() WritableCallback { return b.writable }

// IsOpen reports whether the sink still accepts writes.
func (b *BufferedSink) IsOpen() bool { return !b.ending && b.downstream.IsOpen() }

// End ends the downstream once every held byte has been written.
func (b *BufferedSink) End() {
	if b.ending {
		return
	}
	b.ending = true
	if b.pending.HasRemaining() {
		b.endPending.Set(b.downstream.End)
		return
	}
	b.downstream.End()
}

// Fail reports err as the closing outcome and drops held bytes. A nil err
// reports a clean close.
func (b *BufferedSink) Fail(err error) {
	if err != nil {
		b.pending.Recycle()
		b.endPending.Clear()
	}
	if b.closed.report(err) {
		b.closed.tryFire()
	}
}

func (b *BufferedSink) SetClosedCallback(cb CompletedCallback) {
	b.closed.cb = cb
	b.closed.tryFire()
}

func (b *BufferedSink) ClosedCallback() CompletedCallback { return b.closed.cb }
