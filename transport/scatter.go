// File: transport/scatter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
)

// spread marks n bytes read into the spare space of segs, in order, as
// data.
func spread(segs []*buffer.Segment, n int) {
	for _, s := range segs {
		if n == 0 {
			return
		}
		k := min(n, len(s.Spare()))
		s.Extend(k)
		n -= k
	}
}

// readFirst is the portable path: a single read into the first segment.
func readFirst(conn api.NetConn, segs []*buffer.Segment) (int, error) {
	if len(segs) == 0 {
		return 0, nil
	}
	n, err := conn.Read(segs[0].Spare())
	if n > 0 {
		segs[0].Extend(n)
	}
	return n, err
}
