// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// CPU pinning for reactor goroutines. Platform-specific implementations are
// located in separate files guarded by build tags.

package affinity

import (
	"runtime"

	"github.com/momentics/hioload-stream/api"
)

// Pin locks the calling goroutine to its OS thread and restricts that thread
// to cpuID. The returned function restores the previous CPU mask and
// unlocks the thread; it must run on the same goroutine.
func Pin(cpuID int) (func(), error) {
	if cpuID < 0 {
		return nil, api.InvalidArgument("cpu", cpuID)
	}
	runtime.LockOSThread()
	restore, err := setAffinityPlatform(cpuID)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		restore()
		runtime.UnlockOSThread()
	}, nil
}

// Supported reports whether Pin can work on this platform.
func Supported() bool { return supported }
