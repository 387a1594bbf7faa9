package codec_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/codec"
	"github.com/momentics/hioload-stream/core/stream"
	"github.com/momentics/hioload-stream/fake"
)

func header(kv ...string) http.Header {
	h := make(http.Header)
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return h
}

func TestBodyDecoderSelection(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	body, err := codec.BodyDecoder(src, header("Transfer-Encoding", "gzip, Chunked", "Content-Length", "10"), true, nil)
	require.NoError(t, err)
	assert.IsType(t, &codec.ChunkedDecoder{}, body)

	body, err = codec.BodyDecoder(stream.NewChainEmitter(nil), header("Content-Length", "10"), true, nil)
	require.NoError(t, err)
	require.IsType(t, &codec.LengthFilter{}, body)
	assert.Equal(t, int64(10), body.(*codec.LengthFilter).Length())

	src = stream.NewChainEmitter(nil)
	body, err = codec.BodyDecoder(src, header(), false, nil)
	require.NoError(t, err)
	assert.Same(t, src, body, "a response without framing reads until close")

	src = stream.NewChainEmitter(nil)
	body, err = codec.BodyDecoder(src, header("Connection", "keep-alive, close"), true, nil)
	require.NoError(t, err)
	assert.Same(t, src, body)

	body, err = codec.BodyDecoder(stream.NewChainEmitter(nil), header(), true, nil)
	require.NoError(t, err)
	require.IsType(t, &codec.LengthFilter{}, body)
	assert.Zero(t, body.(*codec.LengthFilter).Length())
}

func TestBodyDecoderStacksContentCoding(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	body, err := codec.BodyDecoder(src, header("Transfer-Encoding", "chunked", "Content-Encoding", "x-gzip"), true, nil)
	require.NoError(t, err)
	gz, ok := body.(*codec.DecompressFilter)
	require.True(t, ok)
	assert.Equal(t, "gzip", gz.Format())
	assert.IsType(t, &codec.ChunkedDecoder{}, gz.Upstream())

	body, err = codec.BodyDecoder(stream.NewChainEmitter(nil), header("Content-Length", "3", "Content-Encoding", "deflate"), true, nil)
	require.NoError(t, err)
	fl, ok := body.(*codec.DecompressFilter)
	require.True(t, ok)
	assert.Equal(t, "deflate", fl.Format())
	assert.IsType(t, &codec.LengthFilter{}, fl.Upstream())

	src = stream.NewChainEmitter(nil)
	body, err = codec.BodyDecoder(src, header("Content-Length", "2", "Content-Encoding", "identity"), true, nil)
	require.NoError(t, err)
	assert.IsType(t, &codec.LengthFilter{}, body)
}

func TestBodyDecoderRejects(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	_, err := codec.BodyDecoder(src, header("Content-Length", "ten"), true, nil)
	assert.Equal(t, api.ErrCodeMalformedFrame, api.CodeOf(err))
	assert.Nil(t, src.DataCallback())

	src = stream.NewChainEmitter(nil)
	_, err = codec.BodyDecoder(src, header("Content-Length", "3", "Content-Encoding", "br"), true, nil)
	assert.Equal(t, api.ErrCodeInvalidArgument, api.CodeOf(err))
	assert.Nil(t, src.DataCallback(), "a rejected body must not take over the upstream")
}

func TestBodyDecoderChunkedGzipEndToEnd(t *testing.T) {
	text := payload()
	gz := compress(t, true, text)

	down := fake.NewSink()
	enc := codec.NewChunkedEncoder(down, codec.WithFlushThreshold(1000))
	feedSink(enc, gz, 333)
	enc.End()

	src := stream.NewChainEmitter(nil)
	body, err := codec.BodyDecoder(src, header("Transfer-Encoding", "chunked", "Content-Encoding", "gzip"), true, nil)
	require.NoError(t, err)
	col := (&fake.Collector{}).Attach(body)
	feedPieces(src, append(down.Bytes(), "NEXT"...), 50)

	require.Equal(t, 1, col.Ends())
	require.NoError(t, col.Err())
	assert.Equal(t, text, col.String())
	assert.Equal(t, "NEXT", src.Pending().PeekString())
}

func TestBodyDecoderZeroLengthThroughReactor(t *testing.T) {
	r := &fake.Reactor{}
	body, err := codec.BodyDecoder(stream.NewChainEmitter(nil), header("Content-Length", "0"), true, r)
	require.NoError(t, err)
	col := (&fake.Collector{}).Attach(body)
	assert.Equal(t, 0, col.Ends())
	r.RunPending()
	assert.Equal(t, 1, col.Ends())
	assert.NoError(t, col.Err())
}

func TestBodyDecoderEmptyCompressedBody(t *testing.T) {
	body, err := codec.BodyDecoder(stream.NewChainEmitter(nil), header("Content-Length", "0", "Content-Encoding", "gzip"), true, nil)
	require.NoError(t, err)
	col := (&fake.Collector{}).Attach(body)
	assert.Equal(t, 1, col.Ends())
	assert.NoError(t, col.Err())

	r := &fake.Reactor{}
	body, err = codec.BodyDecoder(stream.NewChainEmitter(nil), header("Content-Length", "0", "Content-Encoding", "deflate"), false, r)
	require.NoError(t, err)
	col = (&fake.Collector{}).Attach(body)
	r.RunPending()
	assert.Equal(t, 1, col.Ends())
	assert.NoError(t, col.Err())
}

func feedSink(s stream.Sink, p []byte, n int) {
	for len(p) > 0 {
		k := min(n, len(p))
		s.Write(chain(string(p[:k])))
		p = p[k:]
	}
}
