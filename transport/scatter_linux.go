//go:build linux
// +build linux

// File: transport/scatter_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"io"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
)

// scatterRead fills segs with one readv(2) when conn exposes its file
// descriptor, and falls back to a plain read otherwise.
func scatterRead(conn api.NetConn, segs []*buffer.Segment) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok || len(segs) < 2 {
		return readFirst(conn, segs)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return readFirst(conn, segs)
	}
	iovs := make([][]byte, len(segs))
	for i, s := range segs {
		iovs[i] = s.Spare()
	}
	var (
		n    int
		rerr error
	)
	err = raw.Read(func(fd uintptr) bool {
		n, rerr = unix.Readv(int(fd), iovs)
		return rerr != unix.EAGAIN
	})
	if err == nil {
		err = rerr
	}
	if n < 0 {
		n = 0
	}
	spread(segs, n)
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}
