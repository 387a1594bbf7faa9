// File: core/codec/body.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"net/http"
	"strings"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/stream"
)

// BodyDecoder stacks the filters needed to read a message body off
// upstream, as described by the message header.
//
// Transfer-Encoding: chunked takes precedence over Content-Length. A message
// with neither is read until the connection closes when it is a response
// (server is false) or has Connection: close, and is empty otherwise. gzip
// and deflate content codings are then undone; identity passes through.
//
// Options are handed to every filter created.
func BodyDecoder(upstream stream.Emitter, header http.Header, server bool, reactor api.Reactor, opts ...Option) (stream.Emitter, error) {
	if reactor != nil {
		opts = append(opts[:len(opts):len(opts)], WithReactor(reactor))
	}

	enc := strings.ToLower(strings.TrimSpace(header.Get(HeaderContentEncoding)))
	switch enc {
	case "", "identity", "gzip", "x-gzip", "deflate":
	default:
		return nil, api.NewError(api.ErrCodeInvalidArgument, "unsupported content encoding").WithContext("encoding", enc)
	}

	var body stream.Emitter
	switch {
	case hasToken(header.Get(HeaderTransferEncoding), codecChunked):
		body = NewChunkedDecoder(upstream, opts...)
	case header.Get(HeaderContentLength) != "":
		n, err := ParseContentLength(header.Get(HeaderContentLength))
		if err != nil {
			return nil, err
		}
		body = NewLengthFilter(upstream, n, opts...)
	case !server || hasToken(header.Get(HeaderConnection), "close"):
		body = upstream
	default:
		body = NewLengthFilter(upstream, 0, opts...)
	}

	switch enc {
	case "gzip", "x-gzip":
		body = NewGunzipFilter(body, opts...)
	case "deflate":
		body = NewInflateFilter(body, opts...)
	}
	return body, nil
}

// hasToken reports whether the comma-separated header value v lists token.
func hasToken(v, token string) bool {
	for _, part := range strings.Split(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
