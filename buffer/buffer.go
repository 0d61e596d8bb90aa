// Package buffer implements gocork's BUF component (spec.md §4.2): a
// growable, owning byte buffer with in-place formatting, which can be
// sealed into an mbuffer.Buffer or driven as a stream.Consumer sink.
//
// A Buffer is not safe for concurrent use; like every gocork component it
// is owned by a single execution context (spec.md §5).
package buffer

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/libcork/go-cork/corkalloc"
	"github.com/libcork/go-cork/corkerr"
	"github.com/libcork/go-cork/mbuffer"
	"github.com/libcork/go-cork/slice"
	"github.com/libcork/go-cork/stream"
)

// minAllocationFloor is the capacity a zero-init Buffer jumps straight to
// on its first growth, rather than doubling from zero (spec.md §4.2).
const minAllocationFloor = 16

// Buffer is a growable byte buffer. The zero Buffer is valid and empty,
// with no heap backing, matching spec.md §3's "zero-init valid" lifecycle.
type Buffer struct {
	data   []byte // len(data) is the allocated capacity; data[size] == 0 whenever size > 0
	size   int
	alloc  corkalloc.Allocator
	logger *zap.Logger
}

// Option configures a Buffer at construction.
type Option func(*Buffer)

// WithAllocator overrides the backing allocator.
func WithAllocator(a corkalloc.Allocator) Option {
	return func(b *Buffer) { b.alloc = a }
}

// WithLogger installs a debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Buffer) { b.logger = l }
}

// New constructs an empty Buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{alloc: corkalloc.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the buffer's current logical size.
func (b *Buffer) Len() int { return b.size }

// Cap returns the buffer's currently allocated capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// At returns the byte at index i, or corkerr.BadRange if i is out of range.
func (b *Buffer) At(i int) (byte, error) {
	if i < 0 || i >= b.size {
		return 0, corkerr.New(corkerr.BadRange, "index %d out of range for %d-byte buffer", i, b.size)
	}
	return b.data[i], nil
}

// Bytes returns the buffer's current content (length b.size, not including
// the trailing terminator). Callers must not retain the slice across a
// mutating call, since growth may reallocate the backing array.
func (b *Buffer) Bytes() []byte {
	if b.size == 0 {
		return nil
	}
	return b.data[:b.size]
}

// Grow ensures the buffer can hold at least n bytes without reallocating,
// doubling the current capacity and taking the max against n — spec.md
// §4.2's ensure_capacity. Strong exception safety (spec.md §9): the new
// storage is allocated and populated before the old storage is replaced,
// so a failed Grow leaves b completely unchanged.
func (b *Buffer) Grow(n int) error {
	if len(b.data) >= n {
		return nil
	}
	newSize := len(b.data) * 2
	if newSize < n {
		newSize = n
	}
	if len(b.data) == 0 && newSize < minAllocationFloor {
		newSize = minAllocationFloor
		if newSize < n {
			newSize = n
		}
	}
	alloc := b.alloc
	if alloc == nil {
		alloc = corkalloc.Default()
	}
	raw, err := alloc.Raw(newSize)
	if err != nil {
		return corkerr.New(corkerr.OutOfMemory, "growing buffer to %d bytes: %v", newSize, err)
	}
	copy(raw, b.data[:b.size])
	b.data = raw
	if b.logger != nil {
		b.logger.Debug("buffer: grew", zap.Int("new_capacity", newSize))
	}
	return nil
}

// Clear resets the logical size to zero; capacity is preserved.
func (b *Buffer) Clear() {
	b.size = 0
	if len(b.data) > 0 {
		b.data[0] = 0
	}
}

// Truncate shortens the buffer to n bytes. n must not exceed the current
// size.
func (b *Buffer) Truncate(n int) error {
	if n < 0 || n > b.size {
		return corkerr.New(corkerr.BadRange, "cannot truncate %d-byte buffer to %d", b.size, n)
	}
	b.size = n
	if len(b.data) > n {
		b.data[n] = 0
	}
	return nil
}

// Set replaces the buffer's content with src.
func (b *Buffer) Set(src []byte) error {
	if err := b.Grow(len(src) + 1); err != nil {
		return err
	}
	copy(b.data, src)
	b.data[len(src)] = 0
	b.size = len(src)
	return nil
}

// Append adds src to the end of the buffer's content.
func (b *Buffer) Append(src []byte) error {
	if err := b.Grow(b.size + len(src) + 1); err != nil {
		return err
	}
	copy(b.data[b.size:], src)
	b.size += len(src)
	b.data[b.size] = 0
	return nil
}

// SetString is Set for a string.
func (b *Buffer) SetString(s string) error { return b.Set([]byte(s)) }

// AppendString is Append for a string.
func (b *Buffer) AppendString(s string) error { return b.Append([]byte(s)) }

// Printf replaces the buffer's content with the formatted result.
func (b *Buffer) Printf(format string, args ...any) error {
	b.Clear()
	return b.AppendPrintf(format, args...)
}

// AppendPrintf appends the formatted result to the buffer's content.
// fmt.Sprintf already measures the formatted length internally, so this
// plays the role of spec.md §4.2's "measure with a size-probing variant
// first, grow once, then format" without a second formatting pass.
func (b *Buffer) AppendPrintf(format string, args ...any) error {
	formatted := fmt.Sprintf(format, args...)
	return b.Append([]byte(formatted))
}

// Equal compares two buffers by (size, byte content).
func (b *Buffer) Equal(other *Buffer) bool {
	if b == other {
		return true
	}
	if b.size != other.size {
		return false
	}
	return bytes.Equal(b.data[:b.size], other.data[:other.size])
}

// Seal transfers ownership of the buffer's storage into a new
// mbuffer.Buffer (reference count 1) and detaches b (size 0, no backing),
// per spec.md §2's data-flow narrative.
func (b *Buffer) Seal() *mbuffer.Buffer {
	sealed := b.data[:b.size]
	mb := mbuffer.New(sealed, func([]byte) {})
	b.data = nil
	b.size = 0
	return mb
}

// ToSlice seals the buffer and returns a managed slice.Slice over the
// entire sealed region, dropping the intermediate mbuffer reference the
// same way cork_buffer_to_slice does: the slice ends up holding the sole
// remaining reference.
func (b *Buffer) ToSlice() (slice.Slice, error) {
	mb := b.Seal()
	s, err := mb.SliceOffset(0)
	mb.Unref()
	return s, err
}

// bufferConsumer is the BUF-backed stream.Consumer from spec.md §4.5: on
// the first chunk of an episode it clears sink, then appends every chunk
// in order.
type bufferConsumer struct {
	sink *Buffer
}

func (c *bufferConsumer) Data(chunk *slice.Slice, isFirst bool) error {
	if isFirst {
		c.sink.Clear()
	}
	return c.sink.Append(chunk.Bytes())
}

func (c *bufferConsumer) EOF() error { return nil }

func (c *bufferConsumer) Close() {}

// AsConsumer returns a stream.Consumer that forwards every chunk of a
// stream episode into b, clearing b at the start of each new episode.
func (b *Buffer) AsConsumer() stream.Consumer {
	return &bufferConsumer{sink: b}
}
