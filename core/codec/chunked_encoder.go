// File: core/codec/chunked_encoder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"strconv"

	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// ChunkedEncoder frames outbound bytes as HTTP chunks. Writes are collected
// until the flush threshold is reached; End frames what is left and writes
// the last-chunk marker.
type ChunkedEncoder struct {
	*stream.FilteredSink
	framer *chunkFramer
}

// NewChunkedEncoder creates an encoder writing to downstream.
func NewChunkedEncoder(downstream stream.Sink, opts ...Option) *ChunkedEncoder {
	o := newOptions(opts)
	f := &chunkFramer{
		pending:   buffer.NewChain(o.alloc),
		threshold: o.threshold,
		alloc:     o.alloc,
	}
	return &ChunkedEncoder{
		FilteredSink: stream.NewFilteredSink(downstream, o.alloc, f),
		framer:       f,
	}
}

// Held returns the payload bytes waiting for the threshold.
func (e *ChunkedEncoder) Held() int { return e.framer.pending.Remaining() }

type chunkFramer struct {
	pending   *buffer.Chain
	threshold int
	alloc     buffer.Allocator
}

func (f *chunkFramer) Filter(in *buffer.Chain) (*buffer.Chain, error) {
	f.pending.AppendChain(in)
	n := f.pending.Remaining()
	if n == 0 || f.threshold == Unbounded || n < f.threshold {
		return nil, nil
	}
	return f.frame(), nil
}

func (f *chunkFramer) Finish() (*buffer.Chain, error) {
	var out *buffer.Chain
	if f.pending.HasRemaining() {
		out = f.frame()
	} else {
		out = buffer.NewChain(f.alloc)
	}
	out.AppendBytes(lastChunk)
	return out, nil
}

// frame wraps every pending byte into one chunk.
func (f *chunkFramer) frame() *buffer.Chain {
	out := buffer.NewChain(f.alloc)
	size := strconv.FormatInt(int64(f.pending.Remaining()), 16) + "\r\n"
	f.pending.AppendFront(buffer.Wrap([]byte(size)))
	out.AppendChain(f.pending)
	out.AppendBytes(crlf)
	return out
}
