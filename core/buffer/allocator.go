// File: core/buffer/allocator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

// Allocator hands out empty segments and takes back drained ones.
// Implementations must tolerate Reclaim of any segment, including foreign
// ones, and must never fail visibly.
type Allocator interface {
	// Obtain returns an empty segment whose capacity is at least minSize.
	Obtain(minSize int) *Segment
	// Reclaim takes ownership of seg. The caller must not touch it again.
	Reclaim(seg *Segment)
}

// HeapAllocator allocates every segment fresh and drops reclaimed ones.
type HeapAllocator struct {
	// Floor is the minimum capacity of obtained segments.
	Floor int
}

// Obtain allocates max(minSize, Floor) bytes.
func (h HeapAllocator) Obtain(minSize int) *Segment {
	return NewSegment(max(minSize, h.Floor))
}

// Reclaim drops seg.
func (HeapAllocator) Reclaim(*Segment) {}

var defaultAllocator Allocator = HeapAllocator{}
