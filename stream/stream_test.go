package stream_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libcork/go-cork/slice"
	"github.com/libcork/go-cork/stream"
)

type recordingConsumer struct {
	chunks  []string
	firsts  []bool
	eofs    int
	closes  int
	failAt  int // -1 disables
	nextIdx int
}

func (c *recordingConsumer) Data(chunk *slice.Slice, isFirst bool) error {
	if c.failAt >= 0 && c.nextIdx == c.failAt {
		c.nextIdx++
		return errors.New("injected failure")
	}
	c.chunks = append(c.chunks, string(chunk.Bytes()))
	c.firsts = append(c.firsts, isFirst)
	c.nextIdx++
	return nil
}

func (c *recordingConsumer) EOF() error {
	c.eofs++
	return nil
}

func (c *recordingConsumer) Close() { c.closes++ }

func episodeOf(parts ...string) []*slice.Slice {
	out := make([]*slice.Slice, len(parts))
	for i, p := range parts {
		s := slice.NewStatic([]byte(p))
		out[i] = &s
	}
	return out
}

func TestFeedOrderingAndIsFirst(t *testing.T) {
	c := &recordingConsumer{failAt: -1}
	err := stream.Feed(c, episodeOf("a", "b", "c"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, c.chunks)
	require.Equal(t, []bool{true, false, false}, c.firsts)
	require.Equal(t, 1, c.eofs)
}

func TestFeedStopsOnFirstError(t *testing.T) {
	c := &recordingConsumer{failAt: 1}
	err := stream.Feed(c, episodeOf("a", "b", "c"))
	require.Error(t, err)
	require.Equal(t, []string{"a"}, c.chunks)
	require.Equal(t, 0, c.eofs)
}

func TestFeedEmptyEpisodeStillCallsEOF(t *testing.T) {
	c := &recordingConsumer{failAt: -1}
	err := stream.Feed(c, nil)
	require.NoError(t, err)
	require.Equal(t, 1, c.eofs)
	require.Empty(t, c.chunks)
}

func TestClose(t *testing.T) {
	c := &recordingConsumer{failAt: -1}
	c.Close()
	require.Equal(t, 1, c.closes)
}
