package codec_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-stream/api"
	"github.com/momentics/hioload-stream/core/codec"
	"github.com/momentics/hioload-stream/core/stream"
	"github.com/momentics/hioload-stream/fake"
)

func TestLengthForwardsWindowAndLeavesExcess(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	l := codec.NewLengthFilter(src, 10)
	col := (&fake.Collector{}).Attach(l)

	src.Emit(chain("0123456789abcde"))
	assert.Equal(t, "0123456789", col.String())
	assert.Equal(t, 1, col.Ends())
	assert.NoError(t, col.Err())
	assert.Equal(t, int64(10), l.Forwarded())
	assert.Equal(t, "abcde", src.Pending().PeekString())

	src.Emit(chain("xyz"))
	assert.Equal(t, "0123456789", col.String())
	assert.Equal(t, 1, col.Ends())
}

func TestLengthAcrossDeliveries(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	l := codec.NewLengthFilter(src, 6)
	col := (&fake.Collector{}).Attach(l)

	src.Emit(chain("ab"))
	src.Emit(chain("cd"))
	assert.Equal(t, 0, col.Ends())
	src.Emit(chain("efgh"))
	assert.Equal(t, "abcdef", col.String())
	assert.Equal(t, 1, col.Ends())
	assert.Equal(t, "gh", src.Pending().PeekString())
}

func TestLengthRejectsExcess(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	l := codec.NewLengthFilter(src, 4, codec.WithExcessPolicy(codec.ExcessReject))
	col := (&fake.Collector{}).Attach(l)

	src.Emit(chain("abcdEF"))
	require.Equal(t, 1, col.Ends())
	var mf *api.MalformedFrameError
	require.True(t, errors.As(col.Err(), &mf))
	assert.Equal(t, "content-length", mf.Codec)
	assert.Equal(t, "reject", codec.ExcessReject.String())
}

func TestLengthZeroEndsWithoutReactor(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	src.Emit(chain("next request"))
	l := codec.NewLengthFilter(src, 0)
	col := (&fake.Collector{}).Attach(l)

	assert.Equal(t, 1, col.Ends())
	assert.NoError(t, col.Err())
	assert.Equal(t, "", col.String())
	assert.Equal(t, "next request", src.Pending().PeekString())
	assert.Nil(t, src.DataCallback())
}

func TestLengthZeroEndsThroughReactor(t *testing.T) {
	r := &fake.Reactor{}
	src := stream.NewChainEmitter(nil)
	l := codec.NewLengthFilter(src, 0, codec.WithReactor(r))
	col := (&fake.Collector{}).Attach(l)

	assert.Equal(t, 0, col.Ends(), "zero window must not end inside the constructor")
	require.Equal(t, 1, r.Pending())
	r.RunPending()
	assert.Equal(t, 1, col.Ends())
	assert.NoError(t, col.Err())
}

func TestLengthNegative(t *testing.T) {
	l := codec.NewLengthFilter(stream.NewChainEmitter(nil), -1)
	col := (&fake.Collector{}).Attach(l)
	require.Equal(t, 1, col.Ends())
	assert.True(t, errors.Is(col.Err(), api.ErrInvalidArgument))
}

func TestLengthTruncated(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	l := codec.NewLengthFilter(src, 10)
	col := (&fake.Collector{}).Attach(l)

	src.Emit(chain("abc"))
	src.Finish(nil)
	require.Equal(t, 1, col.Ends())
	assert.Equal(t, api.ErrCodeMalformedFrame, api.CodeOf(col.Err()))

	src = stream.NewChainEmitter(nil)
	l = codec.NewLengthFilter(src, 10)
	col = (&fake.Collector{}).Attach(l)
	boom := errors.New("connection reset")
	src.Finish(boom)
	require.Equal(t, 1, col.Ends())
	assert.True(t, errors.Is(col.Err(), boom))
	assert.Equal(t, api.ErrCodeStream, api.CodeOf(col.Err()))
}

func TestLengthHoldsWhileDownstreamPaused(t *testing.T) {
	src := stream.NewChainEmitter(nil)
	l := codec.NewLengthFilter(src, 5)
	col := &fake.Collector{}
	col.TakeAtMost(2)
	col.Attach(l)

	l.Pause()
	src.Emit(chain("hello"))
	assert.Equal(t, "", col.String())

	l.Resume()
	assert.Equal(t, "hello", col.String())
	assert.Equal(t, 1, col.Ends())
}

func TestParseContentLength(t *testing.T) {
	n, err := codec.ParseContentLength(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	for _, bad := range []string{"", "-1", "abc", "1.5", "99999999999999999999"} {
		_, err := codec.ParseContentLength(bad)
		assert.Equal(t, api.ErrCodeMalformedFrame, api.CodeOf(err), bad)
	}
}
