//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation on sched_setaffinity(2).

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const supported = true

// setAffinityPlatform restricts the calling thread to cpuID and returns a
// function putting the old mask back. pid 0 is the calling thread.
func setAffinityPlatform(cpuID int) (func(), error) {
	var old unix.CPUSet
	if err := unix.SchedGetaffinity(0, &old); err != nil {
		return nil, errors.Wrap(err, "affinity: sched_getaffinity")
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return nil, errors.Wrapf(err, "affinity: sched_setaffinity cpu %d", cpuID)
	}
	return func() { _ = unix.SchedSetaffinity(0, &old) }, nil
}

// currentCPUs returns the CPUs the calling thread may run on.
func currentCPUs() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, errors.Wrap(err, "affinity: sched_getaffinity")
	}
	var cpus []int
	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}
