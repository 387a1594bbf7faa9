// File: core/codec/zip.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// ZipSink writes a zip archive to its downstream. Call CreateEntry before
// writing the content of each file; End writes the central directory.
type ZipSink struct {
	*stream.FilteredSink
	filter *zipFilter
}

// NewZipSink creates an archive writer over downstream.
func NewZipSink(downstream stream.Sink, opts ...Option) *ZipSink {
	o := newOptions(opts)
	f := &zipFilter{out: buffer.NewChain(o.alloc)}
	f.zw = zip.NewWriter(f.out)
	return &ZipSink{
		FilteredSink: stream.NewFilteredSink(downstream, o.alloc, f),
		filter:       f,
	}
}

// CreateEntry starts a new deflated file in the archive. Later writes
// become its content.
func (z *ZipSink) CreateEntry(name string) error {
	w, err := z.filter.zw.Create(name)
	if err != nil {
		return err
	}
	z.filter.entry = w
	z.filter.entries++
	return nil
}

// Entries returns how many entries were created.
func (z *ZipSink) Entries() int { return z.filter.entries }

type zipFilter struct {
	zw      *zip.Writer
	entry   io.Writer
	entries int
	out     *buffer.Chain
}

func (f *zipFilter) Filter(in *buffer.Chain) (*buffer.Chain, error) {
	if f.entry == nil {
		if !in.HasRemaining() {
			return nil, nil
		}
		return nil, api.NewError(api.ErrCodeStream, codecZip+": write before CreateEntry").WithContext("bytes", in.Remaining())
	}
	if _, err := in.WriteTo(f.entry); err != nil {
		return nil, err
	}
	if err := f.zw.Flush(); err != nil {
		return nil, err
	}
	return f.take(), nil
}

func (f *zipFilter) Finish() (*buffer.Chain, error) {
	if err := f.zw.Close(); err != nil {
		return nil, err
	}
	return f.take(), nil
}

func (f *zipFilter) take() *buffer.Chain {
	if !f.out.HasRemaining() {
		return nil
	}
	out := buffer.NewChain(f.out.Allocator())
	out.AppendChain(f.out)
	return out
}
