//go:build !linux
// +build !linux

// File: transport/scatter_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
)

func scatterRead(conn api.NetConn, segs []*buffer.Segment) (int, error) {
	return readFirst(conn, segs)
}
