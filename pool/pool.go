// File: pool/pool.go
// Package pool implements the process-wide segment pool shared by every
// buffer chain.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Idle segments are kept in a min-heap ordered by capacity. Small segments
// are evicted first so the pool stays populated with large, broadly reusable
// storage. A single mutex guards the heap; counters are lock-free.

package pool

import (
	"container/heap"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-stream/core/buffer"
)

// Pool is a size-bounded cache of reclaimed segments.
type Pool struct {
	mu        sync.Mutex
	items     segmentHeap
	total     int
	watermark int
	maxPool   int
	maxItem   int
	minItem   int
	log       *zap.Logger

	_ cpu.CacheLinePad

	floor     atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	drops     atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for eviction and drop diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l.Named("pool")
		}
	}
}

// WithLimits replaces DefaultLimits.
func WithLimits(l Limits) Option {
	return func(p *Pool) { p.applyLimits(l) }
}

// New creates a pool. Most programs share Default instead.
func New(opts ...Option) *Pool {
	p := &Pool{log: zap.NewNop()}
	p.applyLimits(DefaultLimits())
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pool) applyLimits(l Limits) {
	p.maxPool = int(l.MaxPoolSize.Bytes())
	p.maxItem = int(l.MaxItemSize.Bytes())
	p.minItem = int(l.MinItemSize.Bytes())
	p.floor.Store(int64(l.AllocationFloor.Bytes()))
}

// Client returns an allocator bound to this pool. A client created with
// pooling=false never touches the pool: every Obtain allocates and every
// Reclaim drops the segment. Whoever owns a latency-sensitive execution
// context hands such a client to the chains created there.
func (p *Pool) Client(pooling bool) *Client {
	return &Client{pool: p, pooling: pooling}
}

// Limits returns the current policy.
func (p *Pool) Limits() Limits {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Limits{
		MaxPoolSize:     bytesize(p.maxPool),
		MaxItemSize:     bytesize(p.maxItem),
		MinItemSize:     bytesize(p.minItem),
		AllocationFloor: bytesize(int(p.floor.Load())),
	}
}

// SetLimits replaces the policy at runtime and sheds idle segments that no
// longer fit it.
func (p *Pool) SetLimits(l Limits) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLimits(l)

	kept := p.items[:0]
	for _, s := range p.items {
		if s.Cap() > p.maxItem || s.Cap() < p.minItem {
			s.SetIdle(false)
			p.total -= s.Cap()
			p.evictions.Inc()
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(p.items); i++ {
		p.items[i] = nil
	}
	p.items = kept
	heap.Init(&p.items)
	for p.total > p.maxPool && p.items.Len() > 0 {
		p.evictLocked()
	}
	p.recomputeWatermarkLocked()
}

// obtain pops pooled segments, smallest first, until one holds minSize.
// Smaller segments met on the way are discarded.
func (p *Pool) obtain(minSize int) *buffer.Segment {
	p.mu.Lock()
	if minSize <= p.watermark {
		for p.items.Len() > 0 {
			s := heap.Pop(&p.items).(*buffer.Segment)
			p.total -= s.Cap()
			if p.items.Len() == 0 {
				p.watermark = 0
			}
			s.SetIdle(false)
			if s.Cap() >= minSize {
				p.mu.Unlock()
				s.Reset()
				p.hits.Inc()
				return s
			}
			p.evictions.Inc()
		}
	}
	p.mu.Unlock()
	p.misses.Inc()
	return buffer.NewPooledSegment(max(minSize, int(p.floor.Load())))
}

// reclaim parks s unless the policy says it is not worth keeping.
func (p *Pool) reclaim(s *buffer.Segment) {
	size := s.Cap()
	p.mu.Lock()
	defer p.mu.Unlock()
	if size < p.minItem || size > p.maxItem {
		return
	}
	for p.total > p.maxPool && p.items.Len() > 0 && p.items.peek().Cap() < size {
		p.evictLocked()
	}
	if p.total > p.maxPool {
		p.drops.Inc()
		p.log.Debug("pool full, dropping segment", zap.Int("size", size), zap.Int("total", p.total))
		return
	}
	s.Reset()
	s.SetIdle(true)
	heap.Push(&p.items, s)
	p.total += size
	p.watermark = max(p.watermark, size)
}

func (p *Pool) evictLocked() {
	s := heap.Pop(&p.items).(*buffer.Segment)
	s.SetIdle(false)
	p.total -= s.Cap()
	p.evictions.Inc()
	p.log.Debug("evicting pooled segment", zap.Int("size", s.Cap()), zap.Int("total", p.total))
}

func (p *Pool) recomputeWatermarkLocked() {
	p.watermark = 0
	for _, s := range p.items {
		p.watermark = max(p.watermark, s.Cap())
	}
}

// Stats is a point-in-time view of a Pool.
type Stats struct {
	Items      int
	TotalBytes int
	Watermark  int
	Hits       int64
	Misses     int64
	Evictions  int64
	Drops      int64
}

// Stats returns current accounting. TotalBytes always equals the summed
// capacity of the idle segments.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	st := Stats{Items: p.items.Len(), TotalBytes: p.total, Watermark: p.watermark}
	p.mu.Unlock()
	st.Hits = p.hits.Load()
	st.Misses = p.misses.Load()
	st.Evictions = p.evictions.Load()
	st.Drops = p.drops.Load()
	return st
}

// capacities returns the capacities of idle segments, for invariant checks.
func (p *Pool) capacities() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.items))
	for i, s := range p.items {
		out[i] = s.Cap()
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool so all components reuse the same
// segments instead of fragmenting allocations.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = New()
	})
	return defaultPool
}
