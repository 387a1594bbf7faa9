// File: pool/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"container/heap"

	"github.com/momentics/hioload-stream/core/buffer"
)

// Client is a buffer.Allocator bound to a Pool with a fixed pooling
// capability.
type Client struct {
	pool    *Pool
	pooling bool
}

var _ buffer.Allocator = (*Client)(nil)

// Pool returns the pool the client is bound to.
func (c *Client) Pool() *Pool { return c.pool }

// Pooling reports whether the client uses the pool.
func (c *Client) Pooling() bool { return c.pooling }

// Obtain returns an empty segment of at least minSize bytes.
func (c *Client) Obtain(minSize int) *buffer.Segment {
	if minSize < 0 {
		minSize = 0
	}
	if !c.pooling {
		return buffer.NewSegment(max(minSize, int(c.pool.floor.Load())))
	}
	return c.pool.obtain(minSize)
}

// Reclaim hands s back to the pool. Foreign segments, segments already idle
// in a pool and segments reclaimed through a non-pooling client are dropped.
func (c *Client) Reclaim(s *buffer.Segment) {
	if s == nil || !s.Poolable() || s.Idle() || !c.pooling {
		return
	}
	c.pool.reclaim(s)
}

// ObtainBatch fills dst with segments whose combined capacity covers size,
// for scatter reads. At most len(dst)-1 pooled segments are used and one
// fresh allocation covers any shortfall; unused slots get empty zero-capacity
// segments. It returns the number of slots holding real storage.
func (c *Client) ObtainBatch(dst []*buffer.Segment, size int) int {
	if len(dst) == 0 {
		return 0
	}
	p := c.pool
	index, total := 0, 0
	if c.pooling {
		p.mu.Lock()
		for p.items.Len() > 0 && total < size && index < len(dst)-1 {
			s := heap.Pop(&p.items).(*buffer.Segment)
			p.total -= s.Cap()
			s.SetIdle(false)
			s.Reset()
			total += min(size-total, s.Cap())
			dst[index] = s
			index++
			p.hits.Inc()
		}
		p.recomputeWatermarkLocked()
		p.mu.Unlock()
	}
	if total < size {
		p.misses.Inc()
		dst[index] = buffer.NewPooledSegment(max(size-total, int(p.floor.Load())))
		index++
	}
	used := index
	for ; index < len(dst); index++ {
		dst[index] = buffer.NewSegment(0)
	}
	return used
}
