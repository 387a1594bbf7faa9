// File: core/codec/deflate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// CompressSink compresses outbound bytes before writing them downstream.
// Use NewDeflateSink for raw deflate and NewGzipSink for gzip.
type CompressSink struct {
	*stream.FilteredSink
	format string
}

type compressor interface {
	io.WriteCloser
	Flush() error
}

// NewDeflateSink creates a raw deflate compressor writing to downstream.
func NewDeflateSink(downstream stream.Sink, opts ...Option) (*CompressSink, error) {
	return newCompressSink(downstream, codecDeflate, func(w io.Writer, level int) (compressor, error) {
		return flate.NewWriter(w, level)
	}, opts)
}

// NewGzipSink creates a gzip compressor writing to downstream.
func NewGzipSink(downstream stream.Sink, opts ...Option) (*CompressSink, error) {
	return newCompressSink(downstream, codecGzip, func(w io.Writer, level int) (compressor, error) {
		return gzip.NewWriterLevel(w, level)
	}, opts)
}

func newCompressSink(downstream stream.Sink, format string, open func(io.Writer, int) (compressor, error), opts []Option) (*CompressSink, error) {
	o := newOptions(opts)
	f := &compressFilter{out: buffer.NewChain(o.alloc), sync: o.syncFlush}
	w, err := open(f.out, o.level)
	if err != nil {
		return nil, err
	}
	f.w = w
	return &CompressSink{
		FilteredSink: stream.NewFilteredSink(downstream, o.alloc, f),
		format:       format,
	}, nil
}

// Format returns "gzip" or "deflate".
func (c *CompressSink) Format() string { return c.format }

// compressFilter writes into out through the compressor and hands out
// whatever compressed bytes it has produced.
type compressFilter struct {
	w    compressor
	out  *buffer.Chain
	sync bool
}

func (f *compressFilter) Filter(in *buffer.Chain) (*buffer.Chain, error) {
	if _, err := in.WriteTo(f.w); err != nil {
		return nil, err
	}
	if f.sync {
		if err := f.w.Flush(); err != nil {
			return nil, err
		}
	}
	return f.take(), nil
}

func (f *compressFilter) Finish() (*buffer.Chain, error) {
	if err := f.w.Close(); err != nil {
		return nil, err
	}
	return f.take(), nil
}

func (f *compressFilter) take() *buffer.Chain {
	if !f.out.HasRemaining() {
		return nil
	}
	out := buffer.NewChain(f.out.Allocator())
	out.AppendChain(f.out)
	return out
}
