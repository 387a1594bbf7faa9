// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract contract of the reactor that drives a pipeline.
// Every data, writable and end callback of one pipeline runs on the
// reactor goroutine; nothing else in the streaming core schedules work.

package api

// Reactor schedules tasks onto the single goroutine that owns a pipeline.
type Reactor interface {
	// Post queues task to run on the reactor goroutine, after any task
	// already queued.
	Post(task func()) error

	// IsReactorGoroutine reports whether the caller is running on the
	// reactor goroutine.
	IsReactorGoroutine() bool
}
