// File: core/stream/util.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"github.com/hashicorp/go-multierror"

	"github.com/momentics/hioload-stream/core/buffer"
)

// WriteAll writes data to sink, retrying on every writable notification,
// and calls done once the chain has been drained. The sink's writable
// callback is restored to nil afterwards.
func WriteAll(sink Sink, data *buffer.Chain, done CompletedCallback) {
	var step WritableCallback
	step = func() {
		sink.Write(data)
		if data.HasRemaining() {
			return
		}
		sink.SetWritableCallback(nil)
		if done != nil {
			done(nil)
		}
	}
	sink.SetWritableCallback(step)
	step()
}

// Pump forwards everything em emits into sink. The emitter is paused while
// the sink is backed up and resumed on its writable notification. done
// receives the end of stream from em or the closing error of sink, whichever
// comes first.
func Pump(em Emitter, sink Sink, done CompletedCallback) {
	var c completion
	c.cb = done
	finish := func(err error) {
		if c.report(err) {
			c.tryFire()
		}
	}
	em.SetDataCallback(func(e Emitter, data *buffer.Chain) {
		sink.Write(data)
		if data.HasRemaining() {
			e.Pause()
		}
	})
	sink.SetWritableCallback(em.Resume)
	em.SetEndCallback(finish)
	sink.SetClosedCallback(func(err error) {
		if err != nil {
			em.Close()
		}
		finish(err)
	})
}

// JoinErrors combines the non-nil errors into one. It returns nil when all
// are nil and the error itself when only one is set.
func JoinErrors(errs ...error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if merr == nil {
		return nil
	}
	if len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return merr
}
