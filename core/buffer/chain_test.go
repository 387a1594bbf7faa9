package buffer

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/momentics/hioload-stream/api"
)

// recordingAllocator allocates from the heap and remembers what it gets back.
type recordingAllocator struct {
	obtained  int
	reclaimed []*Segment
}

func (a *recordingAllocator) Obtain(minSize int) *Segment {
	a.obtained++
	return NewPooledSegment(minSize)
}

func (a *recordingAllocator) Reclaim(s *Segment) { a.reclaimed = append(a.reclaimed, s) }

func full(s string) *Segment {
	seg := NewSegment(len(s))
	seg.Write([]byte(s))
	return seg
}

func segmentSum(c *Chain) int {
	sum := 0
	for i := 0; i < c.Len(); i++ {
		sum += c.at(i).Len()
	}
	return sum
}

func TestConsumeFromHeadIsZeroCopy(t *testing.T) {
	head := NewSegment(4096)
	head.Write(bytes.Repeat([]byte{'x'}, 4096))
	c := NewChain(nil, head, full("tail"))

	view, err := c.Consume(4096)
	require.NoError(t, err)
	require.Len(t, view, 4096)
	assert.Same(t, &head.buf[0], &view[0])
	assert.Equal(t, 4, c.Remaining())
}

func TestConsumeConsolidatesIntoLargestSegment(t *testing.T) {
	a := full("abc")
	b := NewSegment(64)
	b.Write([]byte("defgh"))
	alloc := &recordingAllocator{}
	c := NewChain(alloc, a, b)
	require.Equal(t, 2, c.Len())

	view, err := c.Consume(5)
	require.NoError(t, err)
	assert.Equal(t, "abcde", string(view))
	assert.Same(t, &b.buf[0], &view[0], "bytes must land in the larger segment")
	assert.Equal(t, 0, alloc.obtained)
	assert.Equal(t, 3, c.Remaining())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "fgh", c.PeekString())
}

func TestConsumeNeverConsolidatesIntoForeignStorage(t *testing.T) {
	big := make([]byte, 2, 64)
	copy(big, "ab")
	alloc := &recordingAllocator{}
	c := NewChain(alloc, Wrap(big), Wrap([]byte("cd")), Wrap([]byte("ef")))

	view, err := c.Consume(5)
	require.NoError(t, err)
	assert.Equal(t, "abcde", string(view))
	assert.Equal(t, 1, alloc.obtained)
	assert.Equal(t, "f", c.PeekString())
	assert.Equal(t, "ab", string(big), "caller storage must stay untouched")
}

func TestConsumeBounds(t *testing.T) {
	c := FromString(nil, "hello")

	_, err := c.Consume(6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInsufficientData))
	assert.Equal(t, api.ErrCodeInsufficientData, api.CodeOf(err))
	assert.Equal(t, 5, c.Remaining(), "failed consume must not change the chain")

	_, err = c.Consume(-1)
	assert.True(t, errors.Is(err, api.ErrInvalidArgument))

	view, err := c.Consume(0)
	require.NoError(t, err)
	assert.Empty(t, view)
	assert.Equal(t, 5, c.Remaining())

	view, err = c.Consume(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(view))
	assert.True(t, c.IsEmpty())
}

func TestPeekDoesNotConsume(t *testing.T) {
	c := NewChain(nil, full("ab"), full("cd"))
	p, err := c.Peek(3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(p))
	assert.Equal(t, 4, c.Remaining())
	assert.Equal(t, "abcd", c.ReadString())
}

func TestSplitMovesWholeSegments(t *testing.T) {
	first, second, third := full("aaaa"), full("bbbb"), full("cccc")
	c := NewChain(nil, first, second, third)
	target := NewChain(nil)

	require.NoError(t, c.Split(target, 6))
	assert.Equal(t, 6, target.Remaining())
	assert.Equal(t, 6, c.Remaining())
	assert.Same(t, first, target.at(0))
	assert.Same(t, second, c.at(0), "boundary segment stays with the source")
	assert.Equal(t, "aaaabb", target.PeekString())
	assert.Equal(t, "bbcccc", c.PeekString())

	require.NoError(t, c.Split(target, 0))
	assert.Equal(t, 6, c.Remaining())
	assert.True(t, errors.Is(c.Split(target, 7), api.ErrInsufficientData))
	assert.Equal(t, 6, c.Remaining())
}

func TestGetKeepsOrderAndAllocator(t *testing.T) {
	alloc := &recordingAllocator{}
	c := FromString(alloc, "0123456789").SetOrder(binary.LittleEndian)
	part, err := c.Get(4)
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian, part.Order())
	assert.Equal(t, Allocator(alloc), part.Allocator())
	assert.Equal(t, "0123", part.ReadString())
	assert.Equal(t, "456789", c.ReadString())
}

func TestScalarReads(t *testing.T) {
	raw := []byte{
		0x01, 0x02,
		0xff, 0xff, 0xff, 0xfe,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x01, 0x02,
	}
	c := FromBytes(nil, raw)

	u16, err := c.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	i32, err := c.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	u64, err := c.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(256), u64)

	c.SetOrder(binary.LittleEndian)
	u16, err = c.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)

	_, err = c.ReadByte()
	assert.True(t, errors.Is(err, api.ErrInsufficientData))
}

func TestDrainAll(t *testing.T) {
	s := NewSegment(8)
	s.Write([]byte("01234567"))
	backing := s.buf
	c := NewChain(nil, s)
	out := c.DrainAll()
	assert.Equal(t, "01234567", string(out))
	assert.Same(t, &backing[0], &out[0], "single full segment is handed out")
	assert.True(t, c.IsEmpty())

	c = NewChain(nil, full("ab"), full("cd"))
	assert.Equal(t, "abcd", string(c.DrainAll()))
	assert.Equal(t, 0, c.Len())
}

func TestAppendMergesIntoTail(t *testing.T) {
	alloc := &recordingAllocator{}
	tail := NewSegment(32)
	tail.Write([]byte("head"))
	c := NewChain(alloc, tail)

	small := NewSegment(8)
	small.Write([]byte("-x"))
	c.Append(small)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "head-x", c.PeekString())
	assert.Contains(t, alloc.reclaimed, small)

	empty := NewSegment(8)
	c.Append(empty)
	assert.Contains(t, alloc.reclaimed, empty)
	assert.Equal(t, 6, c.Remaining())
}

func TestAppendFrontUsesHeadroom(t *testing.T) {
	s := NewSegment(16)
	s.Write([]byte("xxworld"))
	s.Advance(2)
	c := NewChain(nil, s)

	c.AppendFront(full("hi"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "hiworld", c.PeekString())

	c.AppendFront(full("oh, "))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "oh, hiworld", c.PeekString())
	assert.Equal(t, 11, c.Remaining())
}

func TestWriteAndReaders(t *testing.T) {
	c := NewChain(HeapAllocator{Floor: 4})
	n, err := c.WriteString("hello, ")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	c.Write([]byte("world"))
	require.NoError(t, c.WriteByte('!'))
	assert.Equal(t, 13, c.Remaining())
	assert.Equal(t, segmentSum(c), c.Remaining())
	assert.Equal(t, 5, c.IndexByte(','))
	assert.Equal(t, -1, c.IndexByte('?'))

	p := make([]byte, 20)
	assert.Error(t, c.ReadFull(p))
	assert.Equal(t, 13, c.Remaining())

	p = p[:5]
	require.NoError(t, c.ReadFull(p))
	assert.Equal(t, "hello", string(p))

	require.NoError(t, c.Skip(2))
	rest, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, "world!", string(rest))

	_, err = c.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)
}

func TestWriteTo(t *testing.T) {
	c := NewChain(nil, full("ab"), full("cd"), full("ef"))
	var out bytes.Buffer
	n, err := c.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	assert.Equal(t, "abcdef", out.String())
	assert.True(t, c.IsEmpty())
}

func TestSegmentsRemoveRecycle(t *testing.T) {
	alloc := &recordingAllocator{}
	a, b := full("ab"), full("cd")
	c := NewChain(alloc, a, b)

	assert.Same(t, a, c.Remove())
	assert.Equal(t, 2, c.Remaining())

	c.Append(full("ef"))
	segs := c.Segments()
	assert.Len(t, segs, 2)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.Len())

	c = NewChain(alloc, segs...)
	c.Recycle()
	assert.Equal(t, 0, c.Remaining())
	assert.Contains(t, alloc.reclaimed, b)
}

func TestAppendChainLeavesSourceEmpty(t *testing.T) {
	src := NewChain(nil, full("ab"), full("cd"))
	dst := FromString(nil, "xy")
	dst.AppendChain(src)
	assert.True(t, src.IsEmpty())
	assert.Equal(t, "xyabcd", dst.ReadString())
}

func TestChainAccountingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		alloc := HeapAllocator{Floor: rapid.IntRange(0, 16).Draw(rt, "floor")}
		c := NewChain(alloc)
		var model []byte
		ops := rapid.IntRange(1, 100).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 5).Draw(rt, "op") {
			case 0:
				p := rapid.SliceOfN(rapid.Byte(), 0, 40).Draw(rt, "write")
				c.Write(p)
				model = append(model, p...)
			case 1:
				p := rapid.SliceOfN(rapid.Byte(), 0, 40).Draw(rt, "wrap")
				c.AppendBytes(p)
				model = append(model, p...)
			case 2:
				n := rapid.IntRange(0, len(model)).Draw(rt, "consume")
				view, err := c.Consume(n)
				if err != nil {
					rt.Fatalf("consume %d of %d: %v", n, len(model), err)
				}
				if !bytes.Equal(view, model[:n]) {
					rt.Fatalf("consume %d returned %q, want %q", n, view, model[:n])
				}
				model = model[n:]
			case 3:
				n := rapid.IntRange(0, len(model)).Draw(rt, "split")
				out, err := c.Get(n)
				if err != nil {
					rt.Fatalf("get %d: %v", n, err)
				}
				if got := out.ReadString(); got != string(model[:n]) {
					rt.Fatalf("get %d returned %q", n, got)
				}
				model = model[n:]
			case 4:
				n := rapid.IntRange(0, len(model)).Draw(rt, "skip")
				if err := c.Skip(n); err != nil {
					rt.Fatalf("skip %d: %v", n, err)
				}
				model = model[n:]
			case 5:
				if _, err := c.Consume(len(model) + 1); !errors.Is(err, api.ErrInsufficientData) {
					rt.Fatalf("over-consume returned %v", err)
				}
			}
			if c.Remaining() != segmentSum(c) {
				rt.Fatalf("remaining %d != segment sum %d", c.Remaining(), segmentSum(c))
			}
			if c.Remaining() != len(model) || c.PeekString() != string(model) {
				rt.Fatalf("chain %q diverged from model %q", c.PeekString(), model)
			}
		}
	})
}
