// File: pool/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "github.com/momentics/hioload-stream/core/buffer"

// segmentHeap is a container/heap min-heap ordered by capacity, so the
// smallest idle segment is always the next one evicted or handed out.
type segmentHeap []*buffer.Segment

func (h segmentHeap) Len() int           { return len(h) }
func (h segmentHeap) Less(i, j int) bool { return h[i].Cap() < h[j].Cap() }
func (h segmentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *segmentHeap) Push(x any) { *h = append(*h, x.(*buffer.Segment)) }

func (h *segmentHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}

func (h segmentHeap) peek() *buffer.Segment {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
