// File: core/stream/line_emitter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"strings"

	"github.com/momentics/hioload-stream/core/buffer"
)

// LineCallback receives one line without its terminator.
type LineCallback func(line string)

// LineEmitter splits an inbound byte stream into LF-terminated lines. A CR
// right before the LF is stripped.
//
// Each delivery consumes at most one line, so a line callback that installs
// a different data callback on the upstream hands every byte after that line
// to the new consumer.
type LineEmitter struct {
	upstream Emitter
	line     strings.Builder
	cb       LineCallback
}

// NewLineEmitter attaches a line splitter to upstream. upstream may be nil
// when the emitter is driven through OnData directly.
func NewLineEmitter(upstream Emitter, cb LineCallback) *LineEmitter {
	l := &LineEmitter{upstream: upstream, cb: cb}
	if upstream != nil {
		upstream.SetDataCallback(l.OnData)
	}
	return l
}

// SetLineCallback replaces the line callback.
func (l *LineEmitter) SetLineCallback(cb LineCallback) { l.cb = cb }

// Partial returns the bytes of the line collected so far.
func (l *LineEmitter) Partial() string { return l.line.String() }

// OnData is the DataCallback of the splitter.
func (l *LineEmitter) OnData(_ Emitter, data *buffer.Chain) {
	idx := data.IndexByte('\n')
	if idx < 0 {
		l.line.WriteString(data.ReadString())
		return
	}
	chunk, _ := data.Consume(idx + 1)
	l.line.Write(chunk[:idx])
	s := strings.TrimSuffix(l.line.String(), "\r")
	l.line.Reset()
	if l.cb != nil {
		l.cb(s)
	}
}
