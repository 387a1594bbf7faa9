// File: core/stream/continuation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

// Continuation holds at most one deferred action. Setting a new action
// replaces the previous one; firing consumes it. The zero value is empty and
// ready to use.
type Continuation struct {
	fn func()
}

// Set stores fn, replacing any pending action.
func (c *Continuation) Set(fn func()) { c.fn = fn }

// Pending reports whether an action is stored.
func (c *Continuation) Pending() bool { return c.fn != nil }

// Clear drops the pending action without running it.
func (c *Continuation) Clear() { c.fn = nil }

// Fire runs and clears the pending action. It reports whether one ran. The
// slot is cleared before the action runs so the action may store a
// successor.
func (c *Continuation) Fire() bool {
	fn := c.fn
	if fn == nil {
		return false
	}
	c.fn = nil
	fn()
	return true
}

// completion latches a single end-of-stream outcome until someone is there
// to receive it.
type completion struct {
	cb    CompletedCallback
	done  bool
	err   error
	fired bool
}

// report records the outcome. Later reports are ignored.
func (c *completion) report(err error) bool {
	if c.done {
		return false
	}
	c.done, c.err = true, err
	return true
}

func (c *completion) tryFire() {
	if !c.done || c.fired || c.cb == nil {
		return
	}
	c.fired = true
	c.cb(c.err)
}
