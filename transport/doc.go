// Package transport
// Author: momentics <momentics@gmail.com>
//
// Binds a network connection to a stream pipeline. Conn is the source emitter
// and the final sink of a pipeline: a reader goroutine scatter-reads into pool
// segments and posts the chains to the pipeline's reactor, and a writer
// goroutine drains queued output to the connection.
package transport
