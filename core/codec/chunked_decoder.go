// File: core/codec/chunked_decoder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

type chunkState uint8

const (
	stateReadSize chunkState = iota
	stateReadData
	stateReadDataCRLF
	stateReadTrailers
	stateDone
)

func (s chunkState) String() string {
	switch s {
	case stateReadSize:
		return "size"
	case stateReadData:
		return "data"
	case stateReadDataCRLF:
		return "data-crlf"
	case stateReadTrailers:
		return "trailers"
	default:
		return "done"
	}
}

// ChunkedDecoder strips HTTP chunked transfer framing from its upstream and
// emits the payload. It stops consuming after the terminating empty line;
// bytes beyond it stay with the upstream.
type ChunkedDecoder struct {
	stream.FilteredEmitter
	state    chunkState
	left     int64
	sawCR    bool
	line     []byte
	trailers http.Header
	log      *zap.Logger
}

// NewChunkedDecoder attaches a decoder to upstream.
func NewChunkedDecoder(upstream stream.Emitter, opts ...Option) *ChunkedDecoder {
	o := newOptions(opts)
	d := &ChunkedDecoder{
		trailers: make(http.Header),
		log:      o.log,
	}
	d.Attach(upstream, o.alloc, d.onData, d.onEnd)
	return d
}

// Trailers returns the trailer fields seen after the last chunk.
func (d *ChunkedDecoder) Trailers() http.Header { return d.trailers }

// Done reports whether the terminating chunk and trailers have been read.
func (d *ChunkedDecoder) Done() bool { return d.state == stateDone }

func (d *ChunkedDecoder) onData(_ stream.Emitter, data *buffer.Chain) {
	for data.HasRemaining() && !d.Ended() && !d.IsPaused() {
		switch d.state {
		case stateReadSize:
			line, ok, err := d.readLine(data)
			if err != nil {
				d.fail(err)
				return
			}
			if !ok {
				return
			}
			size, err := parseChunkSize(line)
			if err != nil {
				d.fail(err)
				return
			}
			if size == 0 {
				d.state = stateReadTrailers
				continue
			}
			d.left, d.state = size, stateReadData

		case stateReadData:
			k := int(min(d.left, int64(data.Remaining())))
			out, _ := data.Get(k)
			d.left -= int64(k)
			if d.left == 0 {
				d.state = stateReadDataCRLF
			}
			d.Emit(out)

		case stateReadDataCRLF:
			b, _ := data.ReadByte()
			switch {
			case b == '\r' && !d.sawCR:
				d.sawCR = true
			case b == '\n':
				d.sawCR = false
				d.state = stateReadSize
			default:
				d.fail(api.NewMalformedFrame(codecChunked, "expected CRLF after chunk data, got %q", b))
				return
			}

		case stateReadTrailers:
			line, ok, err := d.readLine(data)
			if err != nil {
				d.fail(err)
				return
			}
			if !ok {
				return
			}
			if line == "" {
				d.state = stateDone
				d.Detach()
				d.Report(nil)
				return
			}
			name, value, found := strings.Cut(line, ":")
			if !found || strings.TrimSpace(name) == "" {
				d.fail(api.NewMalformedFrame(codecChunked, "invalid trailer line %q", line))
				return
			}
			d.trailers.Add(strings.TrimSpace(name), strings.TrimSpace(value))

		default:
			return
		}
	}
}

// readLine collects bytes up to LF. It reports false while the line is
// still incomplete; the partial line is kept across deliveries.
func (d *ChunkedDecoder) readLine(data *buffer.Chain) (string, bool, error) {
	idx := data.IndexByte('\n')
	if idx < 0 {
		if len(d.line)+data.Remaining() > MaxChunkLineLen+1 {
			return "", false, api.NewMalformedFrame(codecChunked, "%s line exceeds %d bytes", d.state, MaxChunkLineLen)
		}
		p, _ := data.Consume(data.Remaining())
		d.line = append(d.line, p...)
		return "", false, nil
	}
	if len(d.line)+idx > MaxChunkLineLen+1 {
		return "", false, api.NewMalformedFrame(codecChunked, "%s line exceeds %d bytes", d.state, MaxChunkLineLen)
	}
	p, _ := data.Consume(idx + 1)
	d.line = append(d.line, p[:idx]...)
	line := strings.TrimSuffix(string(d.line), "\r")
	d.line = d.line[:0]
	return line, true, nil
}

// parseChunkSize reads the leading hex digits of a chunk-size line.
// Anything after the digits, including ';' extensions, is ignored.
func parseChunkSize(line string) (int64, error) {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimRight(line, " \t")
	digits := 0
	for digits < len(line) && isHex(line[digits]) {
		digits++
	}
	if digits == 0 {
		return 0, api.NewMalformedFrame(codecChunked, "missing chunk size in %q", line)
	}
	if digits > MaxChunkSizeDigits {
		return 0, api.NewMalformedFrame(codecChunked, "chunk size has %d hex digits", digits)
	}
	n, err := strconv.ParseInt(line[:digits], 16, 64)
	if err != nil {
		return 0, api.NewMalformedFrame(codecChunked, "chunk size %q overflows", line)
	}
	return n, nil
}

func isHex(b byte) bool {
	return '0' <= b && b <= '9' || 'a' <= b && b <= 'f' || 'A' <= b && b <= 'F'
}

func (d *ChunkedDecoder) onEnd(err error) {
	if d.state == stateDone {
		return
	}
	if err == nil {
		err = api.NewMalformedFrame(codecChunked, "stream ended in %s state", d.state)
	} else {
		err = api.NewStreamError("chunked", err)
	}
	d.fail(err)
}

func (d *ChunkedDecoder) fail(err error) {
	d.log.Warn("chunked decoding failed", zap.Stringer("state", d.state), zap.Error(err))
	d.state = stateDone
	d.Detach()
	d.Report(err)
}
