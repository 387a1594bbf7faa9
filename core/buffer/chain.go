// File: core/buffer/chain.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Chain is the unit of data handed between pipeline stages: an ordered deque
// of segments holding the unread bytes of a stream. It is confined to the
// goroutine that drives its pipeline and takes no locks.

package buffer

import (
	"encoding/binary"

	"github.com/momentics/hioload-stream/api"
)

// Chain is an ordered sequence of segments. The front segment holds the next
// bytes to read, the back segment the most recently appended ones.
type Chain struct {
	segs      []*Segment
	head      int
	remaining int
	order     binary.ByteOrder
	alloc     Allocator
}

// NewChain creates a chain that obtains and reclaims segments through alloc
// and takes ownership of segs. A nil alloc allocates from the heap.
func NewChain(alloc Allocator, segs ...*Segment) *Chain {
	if alloc == nil {
		alloc = defaultAllocator
	}
	c := &Chain{order: binary.BigEndian, alloc: alloc}
	for _, s := range segs {
		c.Append(s)
	}
	return c
}

// FromBytes creates a chain that wraps p without copying.
func FromBytes(alloc Allocator, p []byte) *Chain {
	return NewChain(alloc, Wrap(p))
}

// FromString creates a chain holding a copy of s.
func FromString(alloc Allocator, s string) *Chain {
	c := NewChain(alloc)
	c.WriteString(s)
	return c
}

// Allocator returns the allocator the chain obtains segments from.
func (c *Chain) Allocator() Allocator { return c.alloc }

// Order returns the byte order used by the scalar readers.
func (c *Chain) Order() binary.ByteOrder { return c.order }

// SetOrder changes the byte order used by the scalar readers.
func (c *Chain) SetOrder(order binary.ByteOrder) *Chain {
	c.order = order
	return c
}

// Remaining returns the number of unread bytes.
func (c *Chain) Remaining() int { return c.remaining }

// HasRemaining reports whether any bytes are left.
func (c *Chain) HasRemaining() bool { return c.remaining > 0 }

// IsEmpty reports whether no bytes are left.
func (c *Chain) IsEmpty() bool { return c.remaining == 0 }

// Len returns the number of segments, including exhausted ones that have not
// been trimmed yet.
func (c *Chain) Len() int { return len(c.segs) - c.head }

// Append adds seg to the back of the chain. An empty segment is reclaimed
// immediately. When the back segment has room the bytes are merged into it
// and seg is reclaimed.
func (c *Chain) Append(seg *Segment) {
	if seg == nil {
		return
	}
	n := seg.Len()
	if n == 0 {
		c.alloc.Reclaim(seg)
		return
	}
	c.remaining += n
	if last := c.back(); last != nil && len(last.Spare()) >= n {
		last.Write(seg.Bytes())
		c.alloc.Reclaim(seg)
		c.Trim()
		return
	}
	c.pushBack(seg)
	c.Trim()
}

// AppendFront adds seg before the first unread byte. When the front segment
// has enough headroom the bytes are merged into it and seg is reclaimed.
func (c *Chain) AppendFront(seg *Segment) {
	if seg == nil {
		return
	}
	n := seg.Len()
	if n == 0 {
		c.alloc.Reclaim(seg)
		return
	}
	c.remaining += n
	if first := c.front(); first != nil && first.Prepend(seg.Bytes()) {
		c.alloc.Reclaim(seg)
		return
	}
	c.pushFront(seg)
}

// AppendChain moves every segment of other to the back of c, leaving other
// empty.
func (c *Chain) AppendChain(other *Chain) {
	if other == nil || other == c {
		return
	}
	for _, s := range other.Segments() {
		c.Append(s)
	}
}

// AppendBytes wraps p without copying and appends it. p must not be modified
// until the bytes have been consumed.
func (c *Chain) AppendBytes(p []byte) {
	if len(p) == 0 {
		return
	}
	c.Append(Wrap(p))
}

// Write copies p to the back of the chain. It implements io.Writer and never
// fails.
func (c *Chain) Write(p []byte) (int, error) {
	total := len(p)
	if total == 0 {
		return 0, nil
	}
	if last := c.back(); last != nil {
		n := last.Write(p)
		c.remaining += n
		p = p[n:]
	}
	if len(p) > 0 {
		seg := c.alloc.Obtain(len(p))
		n := seg.Write(p)
		c.remaining += n
		c.pushBack(seg)
		// Obtain guarantees capacity; a short write means a broken allocator.
		if n != len(p) {
			panic("buffer: allocator returned a short segment")
		}
	}
	c.Trim()
	return total, nil
}

// WriteString copies s to the back of the chain.
func (c *Chain) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// WriteByte appends a single byte.
func (c *Chain) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

// Trim reclaims exhausted segments at the front of the chain.
func (c *Chain) Trim() {
	for c.head < len(c.segs) && c.segs[c.head].Len() == 0 {
		c.alloc.Reclaim(c.popFront())
	}
}

// Remove detaches and returns the front segment, or nil if there is none.
func (c *Chain) Remove() *Segment {
	s := c.popFront()
	if s != nil {
		c.remaining -= s.Len()
	}
	return s
}

// Segments detaches and returns every segment, leaving the chain empty.
func (c *Chain) Segments() []*Segment {
	out := make([]*Segment, 0, c.Len())
	for s := c.popFront(); s != nil; s = c.popFront() {
		if s.Len() == 0 {
			c.alloc.Reclaim(s)
			continue
		}
		out = append(out, s)
	}
	c.remaining = 0
	return out
}

// Recycle reclaims every segment and empties the chain.
func (c *Chain) Recycle() {
	for s := c.popFront(); s != nil; s = c.popFront() {
		c.alloc.Reclaim(s)
	}
	c.remaining = 0
}

// gather makes the front segment hold at least n contiguous bytes and
// returns it. It does not change Remaining.
func (c *Chain) gather(n int) (*Segment, error) {
	if n < 0 {
		return nil, api.InvalidArgument("count", n)
	}
	if n > c.remaining {
		return nil, api.InsufficientData(n, c.remaining)
	}
	c.Trim()
	first := c.front()
	if first == nil || first.Len() >= n {
		return first, nil
	}

	// Look for the largest segment able to hold the consolidated bytes and
	// count how many bytes the consolidation would span.
	var (
		target    *Segment
		targetOff int
		span      int
		last      int
	)
	for i := 0; i < c.Len() && span < n; i++ {
		s := c.at(i)
		if s.Poolable() && (target == nil || s.Cap() > target.Cap()) && s.Cap() >= n {
			target = s
			targetOff = span
		}
		span += s.Len()
		last = i
	}

	if target != nil && target.Cap() >= span {
		// Slide the target's own bytes into their final place, then fill in
		// the bytes of every other spanned segment around them.
		target.relocate(targetOff)
		off := 0
		for i := 0; i <= last; i++ {
			s := c.popFront()
			if s == target {
				off += s.Len()
				continue
			}
			target.place(off, s.Bytes())
			off += s.Len()
			c.alloc.Reclaim(s)
		}
		target.setWindow(0, span)
		c.pushFront(target)
		return target, nil
	}

	seg := c.alloc.Obtain(n)
	var partial *Segment
	for got := 0; got < n; {
		s := c.popFront()
		k := min(n-got, s.Len())
		seg.Write(s.Bytes()[:k])
		s.Advance(k)
		got += k
		if s.Len() == 0 {
			c.alloc.Reclaim(s)
			continue
		}
		partial = s
	}
	if partial != nil {
		c.pushFront(partial)
	}
	c.pushFront(seg)
	return seg, nil
}

// Consume removes the next n bytes from the chain and returns them as one
// contiguous slice. When the front segment already holds n bytes the slice
// aliases it and nothing is copied. The slice stays valid until the next
// call that modifies the chain.
func (c *Chain) Consume(n int) ([]byte, error) {
	seg, err := c.gather(n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	view := seg.Bytes()[:n]
	seg.Advance(n)
	c.remaining -= n
	return view, nil
}

// Peek returns the next n bytes as one contiguous slice without consuming
// them. It may consolidate segments to do so.
func (c *Chain) Peek(n int) ([]byte, error) {
	seg, err := c.gather(n)
	if err != nil || n == 0 {
		return nil, err
	}
	return seg.Bytes()[:n], nil
}

// Skip discards the next n bytes.
func (c *Chain) Skip(n int) error {
	if n < 0 {
		return api.InvalidArgument("count", n)
	}
	if n > c.remaining {
		return api.InsufficientData(n, c.remaining)
	}
	for left := n; left > 0; {
		s := c.front()
		k := min(left, s.Len())
		s.Advance(k)
		left -= k
		if s.Len() == 0 {
			c.alloc.Reclaim(c.popFront())
		}
	}
	c.remaining -= n
	return nil
}

// Split moves the next length bytes into target. Whole segments change
// owner; only a segment straddling the boundary is copied.
func (c *Chain) Split(target *Chain, length int) error {
	if length < 0 {
		return api.InvalidArgument("length", length)
	}
	if length > c.remaining {
		return api.InsufficientData(length, c.remaining)
	}
	for moved := 0; moved < length; {
		s := c.popFront()
		n := s.Len()
		if n == 0 {
			c.alloc.Reclaim(s)
			continue
		}
		if moved+n > length {
			need := length - moved
			sub := c.alloc.Obtain(need)
			sub.Write(s.Bytes()[:need])
			s.Advance(need)
			target.Append(sub)
			c.pushFront(s)
			break
		}
		target.Append(s)
		moved += n
	}
	c.remaining -= length
	return nil
}

// Get splits the next length bytes off into a new chain with the same byte
// order and allocator.
func (c *Chain) Get(length int) (*Chain, error) {
	out := NewChain(c.alloc).SetOrder(c.order)
	if err := c.Split(out, length); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Chain) front() *Segment {
	if c.head == len(c.segs) {
		return nil
	}
	return c.segs[c.head]
}

func (c *Chain) back() *Segment {
	if c.head == len(c.segs) {
		return nil
	}
	return c.segs[len(c.segs)-1]
}

func (c *Chain) at(i int) *Segment { return c.segs[c.head+i] }

func (c *Chain) pushBack(s *Segment) {
	c.segs = append(c.segs, s)
}

func (c *Chain) pushFront(s *Segment) {
	if c.head > 0 {
		c.head--
		c.segs[c.head] = s
		return
	}
	n := c.Len()
	room := n/2 + 4
	grown := make([]*Segment, room+n, room+n+4)
	copy(grown[room:], c.segs[c.head:])
	c.segs, c.head = grown, room-1
	c.segs[c.head] = s
}

func (c *Chain) popFront() *Segment {
	if c.head == len(c.segs) {
		return nil
	}
	s := c.segs[c.head]
	c.segs[c.head] = nil
	c.head++
	if c.head == len(c.segs) {
		c.segs, c.head = c.segs[:0], 0
	}
	return s
}
