// File: core/codec/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
)

// ExcessPolicy decides what a length window does with bytes that arrive
// after its last byte in the same delivery.
type ExcessPolicy int

const (
	// ExcessPipeline leaves excess bytes in the source chain for the next
	// consumer.
	ExcessPipeline ExcessPolicy = iota
	// ExcessReject ends the window with a MalformedFrameError.
	ExcessReject
)

func (p ExcessPolicy) String() string {
	if p == ExcessReject {
		return "reject"
	}
	return "pipeline"
}

type options struct {
	log         *zap.Logger
	alloc       buffer.Allocator
	reactor     api.Reactor
	excess      ExcessPolicy
	outputChunk int
	threshold   int
	level       int
	syncFlush   bool
}

// Option configures a codec filter. Options that do not apply to a filter
// are ignored by it.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		log:         zap.NewNop(),
		outputChunk: DefaultOutputChunk,
		level:       -1,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger for framing and decompression failures.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log.Named("codec")
		}
	}
}

// WithAllocator sets where filters obtain output segments. The default is
// the allocator of the chains the filter receives, or the heap.
func WithAllocator(a buffer.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithReactor routes deferred completions through r.
func WithReactor(r api.Reactor) Option {
	return func(o *options) { o.reactor = r }
}

// WithExcessPolicy sets the length window excess policy.
func WithExcessPolicy(p ExcessPolicy) Option {
	return func(o *options) { o.excess = p }
}

// WithOutputChunk sets the decompressed output segment size.
func WithOutputChunk(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.outputChunk = n
		}
	}
}

// WithFlushThreshold sets how many bytes an encoder buffers before framing
// them. 0 frames every write; Unbounded waits for End.
func WithFlushThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

// WithLevel sets the compression level of compressing sinks.
func WithLevel(level int) Option {
	return func(o *options) { o.level = level }
}

// WithSyncFlush makes compressing sinks flush after every write so each
// write is decodable on its own.
func WithSyncFlush() Option {
	return func(o *options) { o.syncFlush = true }
}
