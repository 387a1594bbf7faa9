// File: reactor/inline.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import "github.com/momentics/hioload-stream/api"

// Inline is a reactor that runs every task on the posting goroutine. It
// suits pipelines driven synchronously, such as tests and one-shot decoders.
type Inline struct{}

// Post runs fn immediately.
func (Inline) Post(fn func()) error {
	if fn == nil {
		return api.InvalidArgument("task", 0)
	}
	fn()
	return nil
}

// IsReactorGoroutine is always true.
func (Inline) IsReactorGoroutine() bool { return true }

var _ api.Reactor = Inline{}
