package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libcork/go-cork/corkalloc"
	"github.com/libcork/go-cork/pool"
)

// TestReuse is spec.md §8 scenario 2: a freed slot is the next one handed
// out, and its contents are not implicitly zeroed.
func TestReuse(t *testing.T) {
	p := pool.New[int64](pool.WithBlockSize[int64](8))
	p1, err := p.Get()
	require.NoError(t, err)
	*p1 = 42
	p.Put(p1)

	p2, err := p.Get()
	require.NoError(t, err)
	require.Same(t, p1, p2)
	require.EqualValues(t, 42, *p2)
	p.Put(p2)
	p.Close()
}

// TestBalance is spec.md §8's POOL balance property: allocated() always
// equals the number of outstanding Gets, and Close only succeeds at zero.
func TestBalance(t *testing.T) {
	p := pool.New[int64](pool.WithBlockSize[int64](4))
	var held []*int64
	for i := 0; i < 10; i++ {
		obj, err := p.Get()
		require.NoError(t, err)
		held = append(held, obj)
		require.Equal(t, i+1, p.Allocated())
	}
	for i, obj := range held {
		p.Put(obj)
		require.Equal(t, len(held)-i-1, p.Allocated())
	}
	p.Close()
}

func TestCloseWithOutstandingSlotsPanics(t *testing.T) {
	p := pool.New[int64]()
	_, err := p.Get()
	require.NoError(t, err)
	require.Panics(t, func() { p.Close() })
}

func TestInitDoneObjectHooks(t *testing.T) {
	var initCount, doneCount int
	p := pool.New[int64](
		pool.WithBlockSize[int64](4),
		pool.WithInitObject[int64](func(v *int64) { initCount++ }),
		pool.WithDoneObject[int64](func(v *int64) { doneCount++ }),
	)
	objs := make([]*int64, 0, 4)
	for i := 0; i < 4; i++ {
		o, err := p.Get()
		require.NoError(t, err)
		objs = append(objs, o)
	}
	require.Equal(t, 4, initCount)

	// Reuse must not re-run InitObject.
	p.Put(objs[0])
	o, err := p.Get()
	require.NoError(t, err)
	require.Same(t, objs[0], o)
	require.Equal(t, 4, initCount)

	for _, o := range objs {
		p.Put(o)
	}
	p.Close()
	require.Equal(t, 4, doneCount)
}

func TestOutOfMemoryPropagates(t *testing.T) {
	faulty := corkalloc.Func(func(n int) ([]byte, error) {
		return nil, errAllocFailed
	})
	p := pool.New[int64](pool.WithAllocator[int64](faulty))
	_, err := p.Get()
	require.Error(t, err)
}

var errAllocFailed = errFaultInjected{}

type errFaultInjected struct{}

func (errFaultInjected) Error() string { return "injected allocation failure" }
