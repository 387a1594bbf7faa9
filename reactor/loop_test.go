package reactor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/momentics/hioload-stream/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	l := NewLoop(opts...)
	go l.Run(context.Background())
	t.Cleanup(l.Stop)
	return l
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := startLoop(t, WithBatchSize(3))

	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 99 {
				close(done)
			}
		}))
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not run")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.Eventually(t, func() bool { return l.Executed() == 100 }, time.Second, time.Millisecond)
}

func TestLoopIdentifiesItsGoroutine(t *testing.T) {
	l := startLoop(t)
	assert.False(t, l.IsReactorGoroutine())

	res := make(chan bool)
	require.NoError(t, l.Post(func() { res <- l.IsReactorGoroutine() }))
	assert.True(t, <-res)
}

func TestLoopTaskPostsTask(t *testing.T) {
	l := startLoop(t)
	done := make(chan struct{})
	require.NoError(t, l.Post(func() {
		assert.NoError(t, l.Post(func() { close(done) }))
	}))
	<-done
}

func TestLoopStopFromTask(t *testing.T) {
	l := NewLoop()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background()) }()

	require.NoError(t, l.Post(l.Stop))
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.True(t, errors.Is(l.Post(func() {}), api.ErrReactorStopped))
}

func TestLoopContextCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()
	assert.True(t, errors.Is(<-errc, context.Canceled))
	<-l.Done()
	assert.Equal(t, api.ErrReactorStopped, l.Post(func() {}))
}

func TestLoopStopBeforeRun(t *testing.T) {
	l := NewLoop()
	l.Stop()
	assert.Equal(t, api.ErrReactorStopped, l.Post(func() {}))
	assert.NoError(t, l.Run(context.Background()))
}

func TestLoopRejectsSecondRunAndNilTask(t *testing.T) {
	l := startLoop(t)
	require.Eventually(t, func() bool { return l.running.Load() }, time.Second, time.Millisecond)
	assert.Equal(t, api.ErrCodeInternal, api.CodeOf(l.Run(context.Background())))
	assert.True(t, errors.Is(l.Post(nil), api.ErrInvalidArgument))
}

func TestLoopDropsQueuedTasksOnStop(t *testing.T) {
	l := NewLoop(WithBatchSize(1))
	ran := 0
	block := make(chan struct{})
	require.NoError(t, l.Post(func() { ran++; <-block }))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Post(func() { ran++ }))
	}
	go l.Run(context.Background())
	require.Eventually(t, func() bool { return l.Pending() == 5 }, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() { l.Stop(); close(stopped) }()
	require.Eventually(t, func() bool {
		select {
		case <-l.quitCh:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	close(block)
	<-stopped
	assert.Equal(t, 1, ran)
	assert.Equal(t, 0, l.Pending())
}

func TestInlineRunsImmediately(t *testing.T) {
	var r api.Reactor = Inline{}
	ran := false
	require.NoError(t, r.Post(func() { ran = true }))
	assert.True(t, ran)
	assert.True(t, r.IsReactorGoroutine())
	assert.Error(t, r.Post(nil))
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.Positive(t, id)
	assert.Equal(t, id, goroutineID())
	other := make(chan int64)
	go func() { other <- goroutineID() }()
	assert.NotEqual(t, id, <-other)
}

func TestLoopPinnedToCPU(t *testing.T) {
	l := startLoop(t, WithCPU(0))
	res := make(chan bool)
	require.NoError(t, l.Post(func() { res <- l.IsReactorGoroutine() }))
	assert.True(t, <-res)
}
