// Package codec
// Author: momentics <momentics@gmail.com>
//
// Byte-stream codec filters for hioload-stream pipelines.
//
// Includes:
//   - HTTP chunked transfer decoding and encoding
//   - Content-Length windows with a configurable excess policy
//   - gzip / raw deflate decompression and compression, zip archive output
//   - BodyDecoder, which stacks the above from message headers
//
// Every decoder is a stream.Filter over an upstream emitter; every encoder is
// a stream.Sink over a downstream sink. Framing errors are reported once
// through the end callback and stop the filter.
package codec
