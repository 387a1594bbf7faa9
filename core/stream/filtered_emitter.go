// File: core/stream/filtered_emitter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"github.com/momentics/hioload-stream/core/buffer"
)

// FilteredEmitter is the emitter half shared by inbound filters. A filter
// embeds it, attaches its own data handler to the upstream emitter and calls
// Emit with transformed bytes and Report when its stream ends.
//
// Transformed bytes the downstream does not take are held and offered again
// on Resume. A clean end is delivered only after they are gone; an error end
// drops them.
type FilteredEmitter struct {
	upstream Emitter
	data     DataCallback
	end      completion
	pending  *buffer.Chain
	emitting bool
}

// Attach makes f the consumer of upstream. onData receives the raw upstream
// bytes; onEnd receives the upstream end signal and defaults to Report.
func (f *FilteredEmitter) Attach(upstream Emitter, alloc buffer.Allocator, onData DataCallback, onEnd CompletedCallback) {
	f.upstream = upstream
	f.pending = buffer.NewChain(alloc)
	if onEnd == nil {
		onEnd = f.Report
	}
	if upstream == nil {
		return
	}
	upstream.SetDataCallback(onData)
	upstream.SetEndCallback(onEnd)
}

// Detach stops consuming upstream. Bytes the upstream still holds stay
// there for whoever attaches next.
func (f *FilteredEmitter) Detach() {
	if f.upstream == nil {
		return
	}
	f.upstream.SetDataCallback(nil)
	f.upstream.SetEndCallback(nil)
}

// Upstream returns the emitter f consumes.
func (f *FilteredEmitter) Upstream() Emitter { return f.upstream }

// Emit pushes data downstream. data is drained into f's own holding chain
// first, so the caller's chain is always empty afterwards.
func (f *FilteredEmitter) Emit(data *buffer.Chain) {
	f.pending.AppendChain(data)
	f.flush()
}

// Held returns the number of emitted bytes the downstream has not taken yet.
func (f *FilteredEmitter) Held() int { return f.pending.Remaining() }

// Report ends the stream with err. Only the first report counts.
func (f *FilteredEmitter) Report(err error) {
	if !f.end.report(err) {
		return
	}
	if err != nil {
		f.pending.Recycle()
	}
	f.finish()
}

// Ended reports whether Report has been called.
func (f *FilteredEmitter) Ended() bool { return f.end.done }

func (f *FilteredEmitter) flush() {
	if f.emitting {
		return
	}
	f.emitting = true
	EmitAll(f, f.pending)
	f.emitting = false
	f.finish()
}

func (f *FilteredEmitter) finish() {
	if f.end.done && (f.end.err != nil || !f.pending.HasRemaining()) {
		f.end.tryFire()
	}
}

func (f *FilteredEmitter) SetDataCallback(cb DataCallback) {
	f.data = cb
	if cb != nil && f.pending != nil && f.pending.HasRemaining() {
		f.flush()
	}
}

func (f *FilteredEmitter) DataCallback() DataCallback { return f.data }

func (f *FilteredEmitter) SetEndCallback(cb CompletedCallback) {
	f.end.cb = cb
	f.finish()
}

func (f *FilteredEmitter) EndCallback() CompletedCallback { return f.end.cb }

// Pause pauses the upstream.
func (f *FilteredEmitter) Pause() {
	if f.upstream != nil {
		f.upstream.Pause()
	}
}

// Resume delivers held bytes, then resumes the upstream.
func (f *FilteredEmitter) Resume() {
	if f.upstream != nil {
		f.upstream.Resume()
	}
	if f.pending != nil && f.pending.HasRemaining() {
		f.flush()
	}
}

func (f *FilteredEmitter) IsPaused() bool {
	return f.upstream != nil && f.upstream.IsPaused()
}

// Close closes the upstream.
func (f *FilteredEmitter) Close() {
	if f.upstream != nil {
		f.upstream.Close()
	}
}
