package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentWindow(t *testing.T) {
	s := NewSegment(16)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 16, s.Cap())
	assert.Equal(t, 16, len(s.Spare()))

	assert.Equal(t, 5, s.Write([]byte("hello")))
	s.Advance(2)
	assert.Equal(t, "llo", string(s.Bytes()))
	assert.Equal(t, 2, s.Headroom())
	assert.Equal(t, 11, len(s.Spare()))

	require.True(t, s.Prepend([]byte("he")))
	assert.Equal(t, "hello", string(s.Bytes()))
	assert.False(t, s.Prepend([]byte("x")), "no headroom left")

	s.Truncate(4)
	assert.Equal(t, "hell", string(s.Bytes()))
	s.Advance(1)
	s.Compact()
	assert.Equal(t, "ell", string(s.Bytes()))
	assert.Equal(t, 0, s.Headroom())

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 16, len(s.Spare()))
}

func TestSegmentWriteStopsAtCapacity(t *testing.T) {
	s := NewSegment(4)
	assert.Equal(t, 4, s.Write([]byte("abcdef")))
	assert.Equal(t, 0, s.Write([]byte("g")))
	assert.Equal(t, "abcd", string(s.Bytes()))
}

func TestWrapIsReadOnly(t *testing.T) {
	p := make([]byte, 4, 64)
	copy(p, "data")
	s := Wrap(p)
	assert.Equal(t, OriginForeign, s.Origin())
	assert.False(t, s.Poolable())
	assert.Nil(t, s.Spare())
	assert.Equal(t, 0, s.Write([]byte("x")))
	s.Advance(2)
	assert.Equal(t, 0, s.Headroom())
	assert.False(t, s.Prepend([]byte("d")))
	assert.Equal(t, "data", string(p))
}

func TestWrapOwnedKeepsSpare(t *testing.T) {
	p := make([]byte, 3, 8)
	s := WrapOwned(p)
	assert.Equal(t, OriginHeap, s.Origin())
	assert.True(t, s.Poolable())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 5, len(s.Spare()))
}

func TestSegmentBoundsPanic(t *testing.T) {
	s := NewSegment(8)
	s.Write([]byte("abc"))
	assert.Panics(t, func() { s.Advance(4) })
	assert.Panics(t, func() { s.Advance(-1) })
	assert.Panics(t, func() { s.Extend(6) })
	assert.Panics(t, func() { s.Truncate(4) })
	assert.Panics(t, func() { NewSegment(-1) })
}

func TestHeapAllocatorFloor(t *testing.T) {
	a := HeapAllocator{Floor: 128}
	assert.Equal(t, 128, a.Obtain(1).Cap())
	assert.Equal(t, 512, a.Obtain(512).Cap())
}
