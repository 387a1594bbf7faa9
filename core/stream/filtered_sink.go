// File: core/stream/filtered_sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"github.com/momentics/hioload-stream/core/buffer"
)

// SinkFilter transforms outbound bytes.
type SinkFilter interface {
	// Filter consumes all of in and returns the bytes to pass on, which may
	// be nil when the filter holds them back.
	Filter(in *buffer.Chain) (*buffer.Chain, error)
	// Finish returns whatever the filter still holds plus its stream
	// terminator.
	Finish() (*buffer.Chain, error)
}

// FilteredSink runs writes through a SinkFilter before buffering them for
// the downstream. A filter error closes the sink with that error.
type FilteredSink struct {
	*BufferedSink
	filter SinkFilter
	failed bool
}

// NewFilteredSink creates a filtered sink writing to downstream.
func NewFilteredSink(downstream Sink, alloc buffer.Allocator, filter SinkFilter) *FilteredSink {
	return &FilteredSink{
		BufferedSink: NewBufferedSink(downstream, alloc),
		filter:       filter,
	}
}

// Write filters data unless the buffer is already full, in which case data
// is left untouched for a later retry.
func (f *FilteredSink) Write(data *buffer.Chain) {
	if f.failed || f.ending || f.full() {
		return
	}
	out, err := f.filter.Filter(data)
	if err != nil {
		f.fail(err)
		return
	}
	f.write(out, true)
}

// End flushes the filter, writes its terminator and ends the downstream.
func (f *FilteredSink) End() {
	if f.failed || f.ending {
		return
	}
	out, err := f.filter.Finish()
	if err != nil {
		f.fail(err)
		return
	}
	f.write(out, true)
	f.BufferedSink.End()
}

func (f *FilteredSink) fail(err error) {
	f.failed = true
	f.Fail(err)
}
