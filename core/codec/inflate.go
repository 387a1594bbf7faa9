// File: core/codec/inflate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The decompressors in klauspost/compress pull from an io.Reader and treat a
// short input as a fatal error. To feed them incrementally each filter runs
// its decompressor on a companion goroutine that hands control back to the
// pipeline whenever it runs out of input, so only one of the two goroutines
// ever runs at a time.

package codec

import (
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// DecompressFilter inflates a compressed upstream. Use NewInflateFilter for
// raw deflate and NewGunzipFilter for gzip. Once input has arrived the
// filter owns a goroutine until the stream ends or the filter is closed or
// detached.
type DecompressFilter struct {
	stream.FilteredEmitter
	format string
	open   func(io.Reader) (io.ReadCloser, error)
	chunk  int
	alloc  buffer.Allocator
	log    *zap.Logger

	started bool
	stopped bool
	input   chan []byte
	yield   chan struct{}
	exit    chan error
	out     *buffer.Chain // written by the worker while the pipeline waits
}

// NewInflateFilter attaches a raw deflate (RFC 1951) decoder to upstream.
func NewInflateFilter(upstream stream.Emitter, opts ...Option) *DecompressFilter {
	return newDecompressFilter(upstream, codecDeflate, func(r io.Reader) (io.ReadCloser, error) {
		return flate.NewReader(r), nil
	}, opts)
}

// NewGunzipFilter attaches a gzip (RFC 1952) decoder to upstream.
// Concatenated members decode as one stream.
func NewGunzipFilter(upstream stream.Emitter, opts ...Option) *DecompressFilter {
	return newDecompressFilter(upstream, codecGzip, func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	}, opts)
}

func newDecompressFilter(upstream stream.Emitter, format string, open func(io.Reader) (io.ReadCloser, error), opts []Option) *DecompressFilter {
	o := newOptions(opts)
	d := &DecompressFilter{
		format: format,
		open:   open,
		chunk:  o.outputChunk,
		alloc:  o.alloc,
		log:    o.log,
		input:  make(chan []byte),
		yield:  make(chan struct{}),
		exit:   make(chan error, 1),
		out:    buffer.NewChain(o.alloc),
	}
	d.Attach(upstream, o.alloc, d.onData, d.onEnd)
	return d
}

// Format returns "gzip" or "deflate".
func (d *DecompressFilter) Format() string { return d.format }

func (d *DecompressFilter) start(alloc buffer.Allocator) (bool, error) {
	if d.alloc == nil {
		d.alloc = alloc
	}
	d.started = true
	go d.run()
	return d.wait()
}

func (d *DecompressFilter) onData(_ stream.Emitter, data *buffer.Chain) {
	if d.stopped {
		return
	}
	if !d.started {
		if done, err := d.start(data.Allocator()); done {
			d.finish(err, nil)
			return
		}
	}
	for data.HasRemaining() && !d.stopped {
		seg := data.Remove()
		d.input <- seg.Bytes()
		done, err := d.wait()
		data.Allocator().Reclaim(seg)
		d.Emit(d.out)
		if done {
			d.finish(err, nil)
			return
		}
	}
}

// wait blocks until the worker wants more input or exits.
func (d *DecompressFilter) wait() (bool, error) {
	select {
	case <-d.yield:
		return false, nil
	case err := <-d.exit:
		d.stopped = true
		return true, err
	}
}

func (d *DecompressFilter) onEnd(upstreamErr error) {
	if d.stopped {
		return
	}
	var err error
	if d.started {
		close(d.input)
		_, err = d.wait()
		d.Emit(d.out)
	} else {
		// An empty body carries no compressed stream at all.
		d.stopped = true
	}
	d.finish(err, upstreamErr)
}

func (d *DecompressFilter) finish(decodeErr, upstreamErr error) {
	d.Detach()
	if decodeErr == io.EOF {
		decodeErr = nil
	}
	if decodeErr != nil {
		decodeErr = &api.DecompressionError{Format: d.format, Err: decodeErr}
		d.log.Warn("decompression failed", zap.String("format", d.format), zap.Error(decodeErr))
	}
	if upstreamErr != nil {
		upstreamErr = api.NewStreamError(d.format, upstreamErr)
	}
	d.Report(stream.JoinErrors(decodeErr, upstreamErr))
}

// Detach stops the worker and releases the upstream. Output the worker had
// not emitted yet is dropped.
func (d *DecompressFilter) Detach() {
	d.stop()
	d.FilteredEmitter.Detach()
}

// Close stops the worker and closes the upstream.
func (d *DecompressFilter) Close() {
	d.stop()
	d.FilteredEmitter.Close()
}

func (d *DecompressFilter) stop() {
	if d.started && !d.stopped {
		close(d.input)
		d.wait()
		d.out.Recycle()
	}
	d.stopped = true
}

// run is the worker goroutine. It reports io.EOF on a clean end.
func (d *DecompressFilter) run() {
	r, err := d.open(&feed{input: d.input, yield: d.yield})
	if err != nil {
		d.exit <- err
		return
	}
	defer r.Close()
	for {
		seg := d.alloc.Obtain(d.chunk)
		n, err := r.Read(seg.Spare()[:d.chunk])
		seg.Extend(n)
		d.out.Append(seg)
		if err != nil {
			d.exit <- err
			return
		}
	}
}

// feed is the worker side of the input hand-off.
type feed struct {
	input  chan []byte
	yield  chan struct{}
	buf    []byte
	closed bool
}

func (f *feed) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		if f.closed {
			return 0, io.EOF
		}
		f.yield <- struct{}{}
		b, ok := <-f.input
		if !ok {
			f.closed = true
			continue
		}
		f.buf = b
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}
