// File: core/buffer/chain_read.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"io"
	"strings"

	"github.com/momentics/hioload-stream/api"
)

// ReadByte consumes one byte.
func (c *Chain) ReadByte() (byte, error) {
	b, err := c.Consume(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 consumes a 2-byte integer in the chain's byte order.
func (c *Chain) ReadUint16() (uint16, error) {
	b, err := c.Consume(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

// ReadUint32 consumes a 4-byte integer in the chain's byte order.
func (c *Chain) ReadUint32() (uint32, error) {
	b, err := c.Consume(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// ReadUint64 consumes an 8-byte integer in the chain's byte order.
func (c *Chain) ReadUint64() (uint64, error) {
	b, err := c.Consume(8)
	if err != nil {
		return 0, err
	}
	return c.order.Uint64(b), nil
}

func (c *Chain) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()
	return int16(v), err
}

func (c *Chain) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Chain) ReadInt64() (int64, error) {
	v, err := c.ReadUint64()
	return int64(v), err
}

// Read copies up to len(p) bytes into p. It returns io.EOF once the chain is
// empty, which makes a Chain usable as an io.Reader over buffered data.
func (c *Chain) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.remaining == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && c.remaining > 0 {
		s := c.front()
		k := copy(p[n:], s.Bytes())
		s.Advance(k)
		n += k
		c.remaining -= k
		if s.Len() == 0 {
			c.alloc.Reclaim(c.popFront())
		}
	}
	return n, nil
}

// ReadFull fills p completely or fails without consuming anything.
func (c *Chain) ReadFull(p []byte) error {
	if len(p) > c.remaining {
		return api.InsufficientData(len(p), c.remaining)
	}
	_, err := c.Read(p)
	if err == io.EOF {
		err = nil
	}
	return err
}

// DrainAll returns every remaining byte and empties the chain. A chain made of
// a single completely filled segment hands out that segment's storage without
// copying.
func (c *Chain) DrainAll() []byte {
	c.Trim()
	if c.Len() == 1 {
		s := c.front()
		if s.start == 0 && s.end == s.Cap() {
			c.popFront()
			c.remaining = 0
			return s.detach()
		}
	}
	out := make([]byte, c.remaining)
	c.Read(out)
	return out
}

// ReadString drains the chain into a string.
func (c *Chain) ReadString() string {
	var sb strings.Builder
	sb.Grow(c.remaining)
	for s := c.popFront(); s != nil; s = c.popFront() {
		sb.Write(s.Bytes())
		c.alloc.Reclaim(s)
	}
	c.remaining = 0
	return sb.String()
}

// PeekString returns the remaining bytes as a string without consuming them.
func (c *Chain) PeekString() string {
	var sb strings.Builder
	sb.Grow(c.remaining)
	for i := 0; i < c.Len(); i++ {
		sb.Write(c.at(i).Bytes())
	}
	return sb.String()
}

// IndexByte returns the offset of the first b among the remaining bytes, or -1.
func (c *Chain) IndexByte(b byte) int {
	off := 0
	for i := 0; i < c.Len(); i++ {
		data := c.at(i).Bytes()
		for j, x := range data {
			if x == b {
				return off + j
			}
		}
		off += len(data)
	}
	return -1
}

// WriteTo drains the chain into w segment by segment. On a short write the
// unwritten bytes stay in the chain.
func (c *Chain) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for c.remaining > 0 {
		s := c.front()
		n, err := w.Write(s.Bytes())
		s.Advance(n)
		c.remaining -= n
		total += int64(n)
		if s.Len() == 0 {
			c.alloc.Reclaim(c.popFront())
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}
