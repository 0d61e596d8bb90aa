package mbuffer_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libcork/go-cork/corkalloc"
	"github.com/libcork/go-cork/mbuffer"
	"github.com/libcork/go-cork/slice"
)

// TestShare is spec.md §8 scenario 3: three overlapping slices share one
// mbuffer, and the release callback fires exactly once, after the last
// Finish.
func TestShare(t *testing.T) {
	var releases int
	buf := mbuffer.New([]byte("abcdefg"), func([]byte) { releases++ })

	s1, err := buf.Slice(0, 7)
	require.NoError(t, err)
	s2, err := buf.Slice(1, 1)
	require.NoError(t, err)
	s3, err := buf.Slice(4, 3)
	require.NoError(t, err)
	buf.Unref() // drop the creator's own reference

	require.Equal(t, 0, releases)
	slice.Finish(&s1)
	require.Equal(t, 0, releases)
	slice.Finish(&s2)
	require.Equal(t, 0, releases)
	slice.Finish(&s3)
	require.Equal(t, 1, releases)
}

// TestReferenceBalance is spec.md §8's MBUF reference balance property:
// ref()+1 == unref() at the moment the release entry runs.
func TestReferenceBalance(t *testing.T) {
	var released bool
	buf := mbuffer.New([]byte("hello"), func([]byte) { released = true })
	refs := 0
	const n = 5
	for i := 0; i < n; i++ {
		buf.Ref()
		refs++
	}
	for i := 0; i < refs; i++ {
		require.False(t, released)
		buf.Unref()
	}
	require.False(t, released)
	buf.Unref() // the initial creation reference
	require.True(t, released)
}

func TestSliceBadRange(t *testing.T) {
	buf := mbuffer.New([]byte("short"), func([]byte) {})
	_, err := buf.Slice(2, 10)
	require.Error(t, err)
	require.Equal(t, 1, buf.RefCount())
}

// TestNewCopyOutOfMemoryPropagates exercises the OUT_OF_MEMORY path
// through NewCopy via a fault-injecting Allocator (spec.md §4.7).
func TestNewCopyOutOfMemoryPropagates(t *testing.T) {
	faulty := corkalloc.Func(func(n int) ([]byte, error) {
		return nil, errors.New("injected allocation failure")
	})
	_, err := mbuffer.NewCopy([]byte("abc"), mbuffer.WithAllocator(faulty))
	require.Error(t, err)
}
