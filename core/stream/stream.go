// File: core/stream/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import "github.com/momentics/hioload-stream/core/buffer"

// DataCallback receives data pushed by em. Bytes it leaves in data remain
// owned by the emitter.
type DataCallback func(em Emitter, data *buffer.Chain)

// CompletedCallback signals end of stream: err is nil on a clean end.
type CompletedCallback func(err error)

// WritableCallback signals that a sink can accept more data.
type WritableCallback func()

// Emitter is a push-model data source.
type Emitter interface {
	SetDataCallback(cb DataCallback)
	DataCallback() DataCallback
	// SetEndCallback registers the end-of-stream handler. An end that
	// happened before registration is delivered on registration.
	SetEndCallback(cb CompletedCallback)
	EndCallback() CompletedCallback
	Pause()
	Resume()
	IsPaused() bool
	Close()
}

// Sink is a push-model data consumer.
type Sink interface {
	// Write consumes as much of data as the sink can take now. Leftover
	// bytes stay in data; the caller retries once the writable callback
	// fires.
	Write(data *buffer.Chain)
	SetWritableCallback(cb WritableCallback)
	WritableCallback() WritableCallback
	IsOpen() bool
	// End flushes and closes the sink. The closed callback reports the
	// outcome.
	End()
	SetClosedCallback(cb CompletedCallback)
	ClosedCallback() CompletedCallback
}

// Filter is a pipeline node that is both a Sink-side consumer of its
// upstream and an Emitter for its downstream.
type Filter interface {
	Emitter
	Upstream() Emitter
}

// EmitAll offers data to em's data callback until the callback stops making
// progress or the emitter is paused. It re-reads the callback on every round
// so a consumer may hand the rest of the stream to a successor from inside
// its own callback.
func EmitAll(em Emitter, data *buffer.Chain) {
	for !em.IsPaused() && data.HasRemaining() {
		cb := em.DataCallback()
		if cb == nil {
			return
		}
		before := data.Remaining()
		cb(em, data)
		if data.Remaining() == before {
			return
		}
	}
}
