// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-stream/core/buffer"
)

// Allocator is a heap allocator that counts traffic and remembers reclaimed
// segments so tests can check ownership hand-offs.
type Allocator struct {
	mu        sync.Mutex
	Floor     int
	obtained  int
	reclaimed []*buffer.Segment
}

// Obtain allocates a fresh pooled-origin segment of max(minSize, Floor).
func (a *Allocator) Obtain(minSize int) *buffer.Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.obtained++
	return buffer.NewPooledSegment(max(minSize, a.Floor))
}

// Reclaim records seg.
func (a *Allocator) Reclaim(seg *buffer.Segment) {
	if seg == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reclaimed = append(a.reclaimed, seg)
}

// Obtained returns the number of Obtain calls.
func (a *Allocator) Obtained() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.obtained
}

// Reclaimed returns the segments handed back so far.
func (a *Allocator) Reclaimed() []*buffer.Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*buffer.Segment(nil), a.reclaimed...)
}

var _ buffer.Allocator = (*Allocator)(nil)
