// File: reactor/loop.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop is a goroutine-backed task reactor. Tasks are queued in FIFO order and
// run one at a time on the goroutine that called Run, in batches, so that a
// pipeline attached to the loop never needs locks.

package reactor

import (
	"context"
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/momentics/hioload-stream/affinity"
	"github.com/momentics/hioload-stream/api"
)

const defaultBatchSize = 64

// Loop runs posted tasks sequentially.
type Loop struct {
	mu        sync.Mutex
	tasks     *queue.Queue // of func(), guarded by mu
	stopped   bool         // guarded by mu
	wake      chan struct{}
	quitCh    chan struct{}
	doneCh    chan struct{}
	quitOnce  sync.Once
	batchSize int
	cpu       int
	started   atomic.Bool
	running   atomic.Bool
	owner     atomic.Int64
	executed  atomic.Int64
	log       *zap.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithBatchSize caps how many tasks run between two queue checks.
func WithBatchSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithCPU pins the goroutine running the loop to cpu. A negative cpu, the
// default, leaves scheduling to the runtime.
func WithCPU(cpu int) Option {
	return func(l *Loop) { l.cpu = cpu }
}

// WithLogger sets the loop logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log.Named("reactor")
		}
	}
}

// NewLoop creates a stopped loop. Call Run to start it.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		tasks:     queue.New(),
		wake:      make(chan struct{}, 1),
		quitCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		batchSize: defaultBatchSize,
		cpu:       -1,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Post queues fn for execution on the loop goroutine. It never blocks and
// fails only once the loop has stopped.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return api.InvalidArgument("task", 0)
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return api.ErrReactorStopped
	}
	l.tasks.Add(fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// IsReactorGoroutine reports whether the caller is the goroutine running the
// loop.
func (l *Loop) IsReactorGoroutine() bool {
	return l.running.Load() && l.owner.Load() == goroutineID()
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Length()
}

// Executed returns the number of tasks run so far.
func (l *Loop) Executed() int64 { return l.executed.Load() }

// Run executes tasks until ctx is done or Stop is called. Tasks still queued
// at that point are dropped. Run returns ctx.Err() when the context ended the
// loop and nil otherwise. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return api.NewError(api.ErrCodeInternal, "reactor loop already started")
	}
	if l.cpu >= 0 {
		unpin, err := affinity.Pin(l.cpu)
		if err != nil {
			l.log.Warn("cannot pin reactor loop", zap.Int("cpu", l.cpu), zap.Error(err))
		} else {
			defer unpin()
		}
	}
	l.owner.Store(goroutineID())
	l.running.Store(true)
	defer func() {
		l.mu.Lock()
		l.stopped = true
		dropped := l.tasks.Length()
		for l.tasks.Length() > 0 {
			l.tasks.Remove()
		}
		l.mu.Unlock()
		if dropped > 0 {
			l.log.Debug("dropping queued tasks", zap.Int("count", dropped))
		}
		l.owner.Store(0)
		l.running.Store(false)
		close(l.doneCh)
	}()

	batch := make([]func(), 0, l.batchSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quitCh:
			return nil
		default:
		}
		batch = l.drain(batch[:0])
		if len(batch) > 0 {
			for i, fn := range batch {
				fn()
				batch[i] = nil
			}
			l.executed.Add(int64(len(batch)))
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quitCh:
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) drain(batch []func()) []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(batch) < l.batchSize && l.tasks.Length() > 0 {
		batch = append(batch, l.tasks.Remove().(func()))
	}
	return batch
}

// Stop ends Run and waits for it to return. Called from a task it returns
// at once and Run exits after the current batch. It is safe to call more
// than once and before Run; a loop stopped before running rejects every
// Post.
func (l *Loop) Stop() {
	l.quitOnce.Do(func() { close(l.quitCh) })
	if l.IsReactorGoroutine() {
		return
	}
	if l.running.Load() {
		<-l.doneCh
		return
	}
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.doneCh }

var _ api.Reactor = (*Loop)(nil)
