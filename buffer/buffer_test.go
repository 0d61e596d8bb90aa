package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libcork/go-cork/buffer"
	"github.com/libcork/go-cork/slice"
	"github.com/libcork/go-cork/stream"
)

// TestAppendAndPrintf is spec.md §8 scenario 1: append_string("Here is ")
// followed by append_printf("%s text.", "some") yields an 18-byte buffer
// containing "Here is some text.".
func TestAppendAndPrintf(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.AppendString("Here is "))
	require.NoError(t, b.AppendPrintf("%s text.", "some"))
	require.Equal(t, 18, b.Len())
	require.Equal(t, "Here is some text.", string(b.Bytes()))
}

func TestSetReplacesContent(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.SetString("first"))
	require.NoError(t, b.SetString("second"))
	require.Equal(t, "second", string(b.Bytes()))
}

func TestClearPreservesCapacity(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.SetString("hello world"))
	capBefore := b.Cap()
	b.Clear()
	require.Equal(t, 0, b.Len())
	require.Equal(t, capBefore, b.Cap())
}

func TestTruncate(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.SetString("hello world"))
	require.NoError(t, b.Truncate(5))
	require.Equal(t, "hello", string(b.Bytes()))
	require.Error(t, b.Truncate(100))
}

func TestAt(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.SetString("abc"))
	v, err := b.At(1)
	require.NoError(t, err)
	require.Equal(t, byte('b'), v)
	_, err = b.At(3)
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := buffer.New()
	b := buffer.New()
	require.NoError(t, a.SetString("same"))
	require.NoError(t, b.SetString("same"))
	require.True(t, a.Equal(b))
	require.NoError(t, b.AppendString("!"))
	require.False(t, a.Equal(b))
}

// TestToSliceRoundTrip is the BUF -> MBUF -> SLICE round trip: sealing a
// buffer into a slice must preserve its bytes and detach the buffer.
func TestToSliceRoundTrip(t *testing.T) {
	b := buffer.New()
	require.NoError(t, b.SetString("round trip"))
	s, err := b.ToSlice()
	require.NoError(t, err)
	require.Equal(t, "round trip", string(s.Bytes()))
	require.Equal(t, 0, b.Len())
	require.Equal(t, 0, b.Cap())
}

func TestAsConsumerClearsOnFirstChunkThenAppends(t *testing.T) {
	sink := buffer.New()
	require.NoError(t, sink.SetString("stale"))
	consumer := sink.AsConsumer()
	defer consumer.Close()

	chunk1 := slice.NewStatic([]byte("hello, "))
	chunk2 := slice.NewStatic([]byte("world"))
	err := stream.Feed(consumer, []*slice.Slice{&chunk1, &chunk2})
	require.NoError(t, err)
	require.Equal(t, "hello, world", string(sink.Bytes()))
}
