//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without thread pinning.

package affinity

import "github.com/momentics/hioload-stream/api"

const supported = false

func setAffinityPlatform(int) (func(), error) {
	return nil, api.ErrNotSupported
}

func currentCPUs() ([]int, error) {
	return nil, api.ErrNotSupported
}
