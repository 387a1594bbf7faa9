// File: core/stream/chain_emitter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"github.com/momentics/hioload-stream/core/buffer"
)

// ChainEmitter is a source emitter fed by its owner. Transports use it to
// push what they read from the wire; tests use it to script input.
//
// Bytes the consumer leaves behind stay in Pending and are offered again
// whenever a data callback is set or the emitter is resumed.
type ChainEmitter struct {
	pending    *buffer.Chain
	data       DataCallback
	end        completion
	paused     bool
	closed     bool
	delivering bool
	again      bool
	onClose    func()
}

// NewChainEmitter creates an emitter whose holding chain uses alloc.
func NewChainEmitter(alloc buffer.Allocator) *ChainEmitter {
	return &ChainEmitter{pending: buffer.NewChain(alloc)}
}

// OnClose registers fn to run when a consumer calls Close.
func (e *ChainEmitter) OnClose(fn func()) { e.onClose = fn }

// Emit appends data to the pending bytes, leaving data empty, and delivers.
func (e *ChainEmitter) Emit(data *buffer.Chain) {
	e.pending.AppendChain(data)
	e.deliver()
}

// Finish ends the stream with err. A clean end reaches the end callback
// once every pending byte has been taken; an error end is reported at once.
func (e *ChainEmitter) Finish(err error) {
	if e.end.report(err) {
		e.deliver()
		e.maybeEnd()
	}
}

func (e *ChainEmitter) maybeEnd() {
	if e.end.done && (e.end.err != nil || !e.pending.HasRemaining()) {
		e.end.tryFire()
	}
}

// Pending returns the bytes no consumer has taken yet.
func (e *ChainEmitter) Pending() *buffer.Chain { return e.pending }

func (e *ChainEmitter) deliver() {
	if e.delivering {
		e.again = true
		return
	}
	e.delivering = true
	for {
		e.again = false
		EmitAll(e, e.pending)
		if !e.again {
			break
		}
	}
	e.delivering = false
	e.maybeEnd()
}

func (e *ChainEmitter) SetDataCallback(cb DataCallback) {
	e.data = cb
	if cb != nil && e.pending.HasRemaining() {
		e.deliver()
	}
}

func (e *ChainEmitter) DataCallback() DataCallback { return e.data }

func (e *ChainEmitter) SetEndCallback(cb CompletedCallback) {
	e.end.cb = cb
	e.maybeEnd()
}

func (e *ChainEmitter) EndCallback() CompletedCallback { return e.end.cb }

func (e *ChainEmitter) Pause() { e.paused = true }

func (e *ChainEmitter) Resume() {
	if !e.paused {
		return
	}
	e.paused = false
	e.deliver()
}

func (e *ChainEmitter) IsPaused() bool { return e.paused }

// Close marks the emitter closed and runs the OnClose hook once.
func (e *ChainEmitter) Close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.onClose != nil {
		e.onClose()
	}
}

// Closed reports whether Close has been called.
func (e *ChainEmitter) Closed() bool { return e.closed }
