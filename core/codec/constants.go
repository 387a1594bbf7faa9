// Package codec
// Author: momentics <momentics@gmail.com>
//
// Wire constants shared by the codec filters.

package codec

const (
	// MaxChunkSizeDigits bounds the hex digits of a chunk-size line.
	MaxChunkSizeDigits = 16
	// MaxChunkLineLen bounds a chunk-size or trailer line, terminator
	// excluded.
	MaxChunkLineLen = 8 << 10

	// DefaultOutputChunk is the segment size used for decompressed output.
	DefaultOutputChunk = 8 << 10

	// Unbounded as a flush threshold buffers encoder output until End.
	Unbounded = -1

	HeaderContentLength    = "Content-Length"
	HeaderTransferEncoding = "Transfer-Encoding"
	HeaderContentEncoding  = "Content-Encoding"
	HeaderConnection       = "Connection"

	codecChunked = "chunked"
	codecLength  = "content-length"
	codecGzip    = "gzip"
	codecDeflate = "deflate"
	codecZip     = "zip"
)

var (
	crlf      = []byte("\r\n")
	lastChunk = []byte("0\r\n\r\n")
)
