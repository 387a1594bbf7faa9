// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-stream/api"
)

// Reactor queues posted tasks until the test runs them.
type Reactor struct {
	mu      sync.Mutex
	tasks   []func()
	stopped bool
}

// Post queues fn.
func (r *Reactor) Post(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return api.ErrReactorStopped
	}
	r.tasks = append(r.tasks, fn)
	return nil
}

// IsReactorGoroutine is always false so callers take their posting path.
func (r *Reactor) IsReactorGoroutine() bool { return false }

// Pending returns the number of queued tasks.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// RunPending runs queued tasks, including ones they post, and returns how
// many ran.
func (r *Reactor) RunPending() int {
	n := 0
	for {
		r.mu.Lock()
		if len(r.tasks) == 0 {
			r.mu.Unlock()
			return n
		}
		fn := r.tasks[0]
		r.tasks = r.tasks[1:]
		r.mu.Unlock()
		fn()
		n++
	}
}

// Stop makes further posts fail.
func (r *Reactor) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

var _ api.Reactor = (*Reactor)(nil)
