// Package mbuffer implements gocork's MBUF component (spec.md §4.3): an
// immutable, reference-counted byte region that one or more slice.Slice
// values can share.
//
// An mbuffer.Buffer is the only gocork type meant to be shared; it is still
// not safe for concurrent use without external synchronization (spec.md
// §5's "atomic refcount ... without changing semantics" is a possible
// future extension, not implemented here).
package mbuffer

import (
	"go.uber.org/zap"

	"github.com/libcork/go-cork/corkalloc"
	"github.com/libcork/go-cork/corkerr"
	"github.com/libcork/go-cork/slice"
)

// OnRelease is the "free vtable entry" from spec.md §4.3: called exactly
// once, when the reference count reaches zero.
type OnRelease func(buf []byte)

// Buffer is a reference-counted, immutable view over a byte region.
type Buffer struct {
	buf       []byte
	refCount  int
	onRelease OnRelease
	alloc     corkalloc.Allocator
	logger    *zap.Logger
}

// Option configures a Buffer at construction.
type Option func(*Buffer)

// WithLogger installs a debug logger, tracing ref/unref/release the way the
// commented-out DEBUG() calls in managed-buffer.c would if compiled in.
func WithLogger(l *zap.Logger) Option {
	return func(b *Buffer) { b.logger = l }
}

// WithAllocator overrides the allocator NewCopy uses to back its private
// copy, the same way pool/buffer/gc thread an Allocator through their
// constructors (spec.md §9). New ignores this option — it wraps a
// caller-owned region and never allocates.
func WithAllocator(a corkalloc.Allocator) Option {
	return func(b *Buffer) { b.alloc = a }
}

// New wraps a caller-owned region. onRelease is responsible for releasing
// buf (if it owns it); it runs exactly once, when the last reference is
// dropped.
func New(buf []byte, onRelease OnRelease, opts ...Option) *Buffer {
	b := &Buffer{buf: buf, refCount: 1, onRelease: onRelease}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewCopy allocates a private copy of buf via the configured Allocator
// (corkalloc.Default unless overridden by WithAllocator) and wraps it with
// a standard release that simply drops the copy for the garbage collector.
func NewCopy(buf []byte, opts ...Option) (*Buffer, error) {
	b := &Buffer{refCount: 1, alloc: corkalloc.Default()}
	for _, opt := range opts {
		opt(b)
	}
	raw, err := b.alloc.Raw(len(buf))
	if err != nil {
		return nil, corkerr.New(corkerr.OutOfMemory, "copying %d-byte buffer: %v", len(buf), err)
	}
	copy(raw, buf)
	b.buf = raw
	b.onRelease = func([]byte) {}
	return b, nil
}

// Bytes returns the full backing region. Implements slice.ManagedSource.
func (b *Buffer) Bytes() []byte { return b.buf }

// Ref increments the reference count and returns b, mirroring
// cork_managed_buffer_ref. Implements slice.ManagedSource.
func (b *Buffer) Ref() slice.ManagedSource {
	b.refCount++
	if b.logger != nil {
		b.logger.Debug("mbuffer: ref", zap.Int("ref_count", b.refCount))
	}
	return b
}

// Unref decrements the reference count, releasing the buffer's storage
// when it reaches zero. Implements slice.ManagedSource.
func (b *Buffer) Unref() {
	b.refCount--
	if b.logger != nil {
		b.logger.Debug("mbuffer: unref", zap.Int("ref_count", b.refCount))
	}
	if b.refCount == 0 && b.onRelease != nil {
		b.onRelease(b.buf)
	}
}

// RefCount reports the current reference count, for tests exercising
// spec.md §8's "MBUF reference balance" property.
func (b *Buffer) RefCount() int { return b.refCount }

// Slice initializes a managed slice.Slice over [offset, offset+length) of
// b, incrementing b's reference count. Returns corkerr.BadRange on an
// invalid range, leaving b's reference count untouched.
func (b *Buffer) Slice(offset, length int) (slice.Slice, error) {
	return slice.NewManaged(b, offset, length)
}

// SliceOffset is Slice with length = remaining bytes from offset.
func (b *Buffer) SliceOffset(offset int) (slice.Slice, error) {
	return b.Slice(offset, len(b.buf)-offset)
}
