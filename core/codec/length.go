// File: core/codec/length.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
)

// LengthFilter forwards exactly Length bytes of its upstream and then ends.
type LengthFilter struct {
	stream.FilteredEmitter
	length    int64
	forwarded int64
	excess    ExcessPolicy
	log       *zap.Logger
}

// NewLengthFilter attaches a window of n bytes to upstream. A zero window
// ends at once: through the reactor when one is configured, otherwise
// immediately, in which case the end is delivered as soon as an end callback
// is registered.
func NewLengthFilter(upstream stream.Emitter, n int64, opts ...Option) *LengthFilter {
	o := newOptions(opts)
	l := &LengthFilter{length: n, excess: o.excess, log: o.log}
	l.Attach(upstream, o.alloc, l.onData, l.onEnd)
	switch {
	case n < 0:
		l.Detach()
		l.Report(api.InvalidArgument("length", int(n)))
	case n == 0:
		l.Detach()
		if o.reactor == nil || o.reactor.Post(func() { l.Report(nil) }) != nil {
			l.Report(nil)
		}
	}
	return l
}

// Length returns the window size.
func (l *LengthFilter) Length() int64 { return l.length }

// Forwarded returns the bytes emitted so far.
func (l *LengthFilter) Forwarded() int64 { return l.forwarded }

func (l *LengthFilter) onData(_ stream.Emitter, data *buffer.Chain) {
	if l.Ended() || l.forwarded == l.length {
		return
	}
	k := int(min(l.length-l.forwarded, int64(data.Remaining())))
	out, _ := data.Get(k)
	l.forwarded += int64(k)
	l.Emit(out)
	if l.forwarded < l.length {
		return
	}
	l.Detach()
	if l.excess == ExcessReject && data.HasRemaining() {
		err := api.NewMalformedFrame(codecLength, "%d bytes past a %d byte body", data.Remaining(), l.length)
		l.log.Warn("excess bytes after body", zap.Int64("length", l.length), zap.Int("excess", data.Remaining()))
		l.Report(err)
		return
	}
	l.Report(nil)
}

func (l *LengthFilter) onEnd(err error) {
	if l.forwarded == l.length {
		l.Report(nil)
		return
	}
	if err == nil {
		err = api.NewMalformedFrame(codecLength, "stream ended after %d of %d bytes", l.forwarded, l.length)
	} else {
		err = api.NewStreamError("length", err)
	}
	l.log.Warn("body truncated", zap.Int64("length", l.length), zap.Int64("forwarded", l.forwarded), zap.Error(err))
	l.Report(err)
}

// ParseContentLength parses a Content-Length value.
func ParseContentLength(v string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, api.NewMalformedFrame(codecLength, "invalid content length %q", v)
	}
	return n, nil
}
