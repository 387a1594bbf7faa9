// File: transport/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"io"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/buffer"
	"github.com/momentics/hioload-stream/core/stream"
	"github.com/momentics/hioload-stream/pool"
)

const (
	defaultReadSize  = 32 << 10
	defaultReadBatch = 4
	defaultHighWater = 256 << 10
)

// Conn drives a pipeline from an api.NetConn. Except for the constructor,
// Close and Done, its methods belong to the reactor goroutine.
type Conn struct {
	*stream.ChainEmitter

	conn      api.NetConn
	reactor   api.Reactor
	client    *pool.Client
	readSize  int
	readBatch int
	highWater int
	log       *zap.Logger

	paused  atomic.Bool
	resume  chan struct{}
	closing atomic.Bool

	mu       sync.Mutex
	cond     *sync.Cond
	queued   *buffer.Chain // guarded by mu
	ending   bool          // guarded by mu
	shutdown bool          // guarded by mu

	writable   stream.WritableCallback
	closedCb   stream.CompletedCallback
	closedDone bool
	closedErr  error
	fired      bool

	readerDone chan struct{}
	writerDone chan struct{}
	done       chan struct{}
}

// Option configures a Conn.
type Option func(*Conn)

// WithClient sets the pool client segments are obtained from.
func WithClient(c *pool.Client) Option {
	return func(conn *Conn) {
		if c != nil {
			conn.client = c
		}
	}
}

// WithReadSize sets the bytes requested per read.
func WithReadSize(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithReadBatch sets how many segments one read may scatter into.
func WithReadBatch(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.readBatch = n
		}
	}
}

// WithHighWater sets how many queued output bytes make the sink refuse
// further writes until drained.
func WithHighWater(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.highWater = n
		}
	}
}

// WithLogger sets the connection logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Conn) {
		if log != nil {
			c.log = log.Named("transport")
		}
	}
}

// Bind starts the reader and writer goroutines of conn. Everything they
// produce is delivered through r.
func Bind(conn api.NetConn, r api.Reactor, opts ...Option) *Conn {
	c := &Conn{
		conn:       conn,
		reactor:    r,
		client:     pool.Default().Client(true),
		readSize:   defaultReadSize,
		readBatch:  defaultReadBatch,
		highWater:  defaultHighWater,
		log:        zap.NewNop(),
		resume:     make(chan struct{}, 1),
		readerDone: make(chan struct{}),
		writerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	c.cond = sync.NewCond(&c.mu)
	c.queued = buffer.NewChain(c.client)
	c.ChainEmitter = stream.NewChainEmitter(c.client)
	c.ChainEmitter.OnClose(c.Close)

	go c.readLoop()
	go c.writeLoop()
	go func() {
		<-c.readerDone
		<-c.writerDone
		close(c.done)
	}()
	return c
}

// Done is closed once both connection goroutines have exited.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Pause stops delivery and, shortly after, reading.
func (c *Conn) Pause() {
	c.paused.Store(true)
	c.ChainEmitter.Pause()
}

// Resume restarts delivery and reading.
func (c *Conn) Resume() {
	c.paused.Store(false)
	select {
	case c.resume <- struct{}{}:
	default:
	}
	c.ChainEmitter.Resume()
}

func (c *Conn) readLoop() {
	defer close(c.readerDone)
	segs := make([]*buffer.Segment, c.readBatch)
	for {
		if c.paused.Load() && !c.closing.Load() {
			<-c.resume
			continue
		}
		used := c.client.ObtainBatch(segs, c.readSize)
		n, err := scatterRead(c.conn, segs[:used])
		data := buffer.NewChain(c.client)
		for i := 0; i < used; i++ {
			data.Append(segs[i])
			segs[i] = nil
		}
		if n > 0 {
			c.post(func() { c.ChainEmitter.Emit(data) }, data)
		}
		if err != nil {
			c.post(func() { c.finishRead(err) }, nil)
			return
		}
	}
}

// post hands fn to the reactor. If the reactor is gone data is released.
func (c *Conn) post(fn func(), data *buffer.Chain) {
	if err := c.reactor.Post(fn); err != nil {
		c.log.Debug("reactor rejected connection event", zap.Error(err))
		if data != nil {
			data.Recycle()
		}
	}
}

func (c *Conn) finishRead(err error) {
	if err == io.EOF || c.closing.Load() {
		err = nil
	} else {
		c.log.Warn("read failed", zap.Error(err))
		err = api.NewStreamError("read", err)
	}
	c.ChainEmitter.Finish(err)
	c.reportClosed(err)
}

// Write queues as much of data as the high-water mark allows. Leftover
// bytes stay in data until the writable callback fires.
func (c *Conn) Write(data *buffer.Chain) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ending || c.shutdown || c.queued.Remaining() >= c.highWater {
		return
	}
	c.queued.AppendChain(data)
	c.cond.Signal()
}

// Queued returns the bytes waiting for the writer goroutine.
func (c *Conn) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queued.Remaining()
}

func (c *Conn) writeLoop() {
	defer close(c.writerDone)
	for {
		c.mu.Lock()
		for !c.queued.HasRemaining() && !c.shutdown && !c.ending {
			c.cond.Wait()
		}
		if c.shutdown || (c.ending && !c.queued.HasRemaining()) {
			ending := c.ending && !c.shutdown
			c.queued.Recycle()
			c.mu.Unlock()
			if ending {
				c.closing.Store(true)
				select {
				case c.resume <- struct{}{}:
				default:
				}
				err := c.conn.Close()
				c.post(func() { c.reportClosed(err) }, nil)
			}
			return
		}
		batch := buffer.NewChain(c.client)
		batch.AppendChain(c.queued)
		c.mu.Unlock()

		if _, err := batch.WriteTo(c.conn); err != nil {
			batch.Recycle()
			if !c.closing.Load() {
				c.log.Warn("write failed", zap.Error(err))
				werr := api.NewStreamError("write", err)
				c.post(func() { c.reportClosed(werr) }, nil)
			}
			c.mu.Lock()
			c.shutdown = true
			c.queued.Recycle()
			c.mu.Unlock()
			return
		}
		c.post(c.onWritable, nil)
	}
}

func (c *Conn) onWritable() {
	if c.Queued() == 0 && c.writable != nil {
		c.writable()
	}
}

func (c *Conn) SetWritableCallback(cb stream.WritableCallback) { c.writable = cb }

func (c *Conn) WritableCallback() stream.WritableCallback { return c.writable }

// IsOpen reports whether the connection still accepts writes.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.ending && !c.shutdown
}

// End closes the connection once queued output has been written.
func (c *Conn) End() {
	c.mu.Lock()
	c.ending = true
	c.cond.Signal()
	c.mu.Unlock()
}

func (c *Conn) SetClosedCallback(cb stream.CompletedCallback) {
	c.closedCb = cb
	c.fireClosed()
}

func (c *Conn) ClosedCallback() stream.CompletedCallback { return c.closedCb }

func (c *Conn) reportClosed(err error) {
	if c.closedDone {
		return
	}
	c.closedDone, c.closedErr = true, err
	c.fireClosed()
}

func (c *Conn) fireClosed() {
	if c.closedDone && !c.fired && c.closedCb != nil {
		c.fired = true
		c.closedCb(c.closedErr)
	}
}

// Close shuts the connection down without flushing. Safe from any
// goroutine.
func (c *Conn) Close() {
	if !c.closing.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	c.shutdown = true
	c.cond.Broadcast()
	c.mu.Unlock()
	select {
	case c.resume <- struct{}{}:
	default:
	}
	if err := c.conn.Close(); err != nil {
		c.log.Debug("close failed", zap.Error(err))
	}
}

var (
	_ stream.Emitter = (*Conn)(nil)
	_ stream.Sink    = (*Conn)(nil)
)
