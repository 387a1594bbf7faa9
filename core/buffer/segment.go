// File: core/buffer/segment.go
// Package buffer implements byte segments and the segment chain that carries
// stream data between pipeline stages.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import "fmt"

// Origin records where a segment's storage came from.
type Origin uint8

const (
	// OriginHeap marks storage allocated ad hoc for this segment.
	OriginHeap Origin = iota
	// OriginPooled marks storage allocated by a segment pool.
	OriginPooled
	// OriginForeign marks caller-owned storage wrapped without copying.
	// Foreign storage is never written to and never pooled.
	OriginForeign
)

func (o Origin) String() string {
	switch o {
	case OriginHeap:
		return "heap"
	case OriginPooled:
		return "pooled"
	case OriginForeign:
		return "foreign"
	default:
		return fmt.Sprintf("origin(%d)", uint8(o))
	}
}

// Segment is a fixed-capacity byte region with a valid-data window [start, end).
// Bytes before start are headroom, bytes after end are spare capacity.
// A segment has exactly one owner: a Chain, a pool, or the caller that
// obtained it.
type Segment struct {
	buf    []byte
	start  int
	end    int
	origin Origin
	idle   bool
}

// NewSegment allocates an empty heap segment of the given capacity.
func NewSegment(capacity int) *Segment {
	if capacity < 0 {
		panic("buffer: negative segment capacity")
	}
	return &Segment{buf: make([]byte, capacity), origin: OriginHeap}
}

// NewPooledSegment allocates an empty segment tagged as pool storage.
func NewPooledSegment(capacity int) *Segment {
	s := NewSegment(capacity)
	s.origin = OriginPooled
	return s
}

// Wrap exposes p as a read-only segment without copying. The caller keeps
// ownership of p's memory; the segment never writes into it.
func Wrap(p []byte) *Segment {
	return &Segment{buf: p[:len(p):len(p)], end: len(p), origin: OriginForeign}
}

// WrapOwned takes ownership of p. The valid window is p[:len(p)] and the
// rest of cap(p) becomes spare capacity.
func WrapOwned(p []byte) *Segment {
	return &Segment{buf: p[:cap(p)], end: len(p), origin: OriginHeap}
}

// Len returns the number of valid bytes.
func (s *Segment) Len() int { return s.end - s.start }

// Cap returns the fixed capacity.
func (s *Segment) Cap() int { return len(s.buf) }

// Bytes returns the valid window. The slice aliases segment storage.
func (s *Segment) Bytes() []byte { return s.buf[s.start:s.end] }

// Spare returns the writable region after the valid window.
// Foreign segments have no spare region.
func (s *Segment) Spare() []byte {
	if s.origin == OriginForeign {
		return nil
	}
	return s.buf[s.end:]
}

// Headroom returns the number of free bytes before the valid window.
func (s *Segment) Headroom() int {
	if s.origin == OriginForeign {
		return 0
	}
	return s.start
}

// Origin returns the storage origin.
func (s *Segment) Origin() Origin { return s.origin }

// Poolable reports whether the storage may be handed to another owner once
// this one is done with it.
func (s *Segment) Poolable() bool { return s.origin != OriginForeign }

// Advance drops n bytes from the front of the valid window.
func (s *Segment) Advance(n int) {
	if n < 0 || n > s.Len() {
		panic(fmt.Sprintf("buffer: advance %d out of range [0,%d]", n, s.Len()))
	}
	s.start += n
}

// Extend commits n bytes previously written into Spare.
func (s *Segment) Extend(n int) {
	if n < 0 || n > len(s.Spare()) {
		panic(fmt.Sprintf("buffer: extend %d out of range [0,%d]", n, len(s.Spare())))
	}
	s.end += n
}

// Truncate keeps only the first n valid bytes.
func (s *Segment) Truncate(n int) {
	if n < 0 || n > s.Len() {
		panic(fmt.Sprintf("buffer: truncate %d out of range [0,%d]", n, s.Len()))
	}
	s.end = s.start + n
}

// Write copies as much of p as fits into the spare region and returns the
// number of bytes copied.
func (s *Segment) Write(p []byte) int {
	n := copy(s.Spare(), p)
	s.end += n
	return n
}

// Prepend copies p into the headroom directly before the valid window.
// It reports false and leaves the segment untouched if p does not fit.
func (s *Segment) Prepend(p []byte) bool {
	if len(p) > s.Headroom() {
		return false
	}
	s.start -= len(p)
	copy(s.buf[s.start:], p)
	return true
}

// Compact moves the valid window to offset zero.
func (s *Segment) Compact() {
	s.relocate(0)
}

// Reset empties the segment so its whole capacity is writable again.
func (s *Segment) Reset() {
	s.start, s.end = 0, 0
}

// Idle reports whether the segment is parked inside a pool.
func (s *Segment) Idle() bool { return s.idle }

// SetIdle is used by Allocator implementations to flag parked segments.
func (s *Segment) SetIdle(idle bool) { s.idle = idle }

func (s *Segment) String() string {
	return fmt.Sprintf("segment{%d:%d/%d %s}", s.start, s.end, len(s.buf), s.origin)
}

// relocate moves the valid window so it starts at off.
func (s *Segment) relocate(off int) {
	n := s.Len()
	if off < 0 || off+n > len(s.buf) {
		panic(fmt.Sprintf("buffer: relocate %d+%d exceeds capacity %d", off, n, len(s.buf)))
	}
	if off != s.start {
		copy(s.buf[off:off+n], s.buf[s.start:s.end])
	}
	s.start, s.end = off, off+n
}

// place writes p at absolute offset off, leaving the window untouched.
func (s *Segment) place(off int, p []byte) {
	if off < 0 || off+len(p) > len(s.buf) {
		panic(fmt.Sprintf("buffer: place %d+%d exceeds capacity %d", off, len(p), len(s.buf)))
	}
	copy(s.buf[off:], p)
}

// setWindow replaces the valid window.
func (s *Segment) setWindow(start, end int) {
	if start < 0 || start > end || end > len(s.buf) {
		panic(fmt.Sprintf("buffer: window [%d,%d) outside capacity %d", start, end, len(s.buf)))
	}
	s.start, s.end = start, end
}

// detach hands out the backing array and leaves the segment empty.
func (s *Segment) detach() []byte {
	b := s.buf
	s.buf, s.start, s.end = nil, 0, 0
	return b
}
