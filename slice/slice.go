// Package slice implements gocork's SLICE component (spec.md §4.4): a
// lightweight, read-only view over a byte buffer that knows how to share or
// release whatever it's viewing when it is finished with.
//
// A Slice is not safe for concurrent use; like every gocork component it is
// owned by a single execution context (spec.md §5).
package slice

import (
	"bytes"

	"github.com/libcork/go-cork/corkerr"
)

// ManagedSource is the contract a ref-counted buffer must satisfy to back a
// managed Slice — satisfied by *mbuffer.Buffer. Keeping this as a small
// interface here (rather than importing package mbuffer) avoids the import
// cycle the original C has no trouble with via void* user_data
// (managed-buffer.c's slice iface talks to slice.h without slice.h knowing
// about cork_managed_buffer_t).
type ManagedSource interface {
	// Bytes returns the full backing region.
	Bytes() []byte
	// Ref increments the source's reference count and returns the same
	// source (mirroring cork_managed_buffer_ref's "returns a reference").
	Ref() ManagedSource
	// Unref decrements the reference count, releasing the source's
	// storage once it reaches zero.
	Unref()
}

// flavor is the per-flavor vtable from spec.md §3/§4.4: cork_slice_iface_t
// translated into an interface.
type flavor interface {
	// copy produces a new Slice over [offset, offset+length) of s.
	copy(s *Slice, offset, length int) Slice
	// sliceInPlace narrows s itself to [offset, offset+length).
	sliceInPlace(s *Slice, offset, length int)
	// finish releases whatever this flavor holds; called at most once.
	finish(s *Slice)
}

// Slice is a read-only view over a byte region. The zero Slice is empty and
// safe to Finish (a no-op).
type Slice struct {
	buf    []byte
	flavor flavor
	// state is flavor-specific data: nil for static, a ManagedSource for
	// managed, and a *copyOnceState for copy-once.
	state any
}

// IsEmpty reports whether the slice has no backing bytes, mirroring
// cork_slice_is_empty.
func (s *Slice) IsEmpty() bool { return s.buf == nil }

// Bytes returns the slice's current view. The returned slice must be
// treated as read-only by callers (spec.md §3: "any SLICE hands out
// read-only access to its bytes").
func (s *Slice) Bytes() []byte { return s.buf }

// Len returns the number of bytes currently visible through the slice.
func (s *Slice) Len() int { return len(s.buf) }

// clear resets s to the empty state, matching cork_slice_clear.
func (s *Slice) clear() {
	s.buf = nil
	s.flavor = nil
	s.state = nil
}

// ---------------------------------------------------------------------
// static flavor
// ---------------------------------------------------------------------

type staticFlavor struct{}

func (staticFlavor) copy(s *Slice, offset, length int) Slice {
	return Slice{buf: s.buf[offset : offset+length], flavor: staticFlavor{}}
}

func (staticFlavor) sliceInPlace(s *Slice, offset, length int) {
	s.buf = s.buf[offset : offset+length]
}

func (staticFlavor) finish(s *Slice) {}

// NewStatic initializes a Slice that points at immutable, externally-owned
// storage. Finish is a no-op; Copy yields another static Slice.
func NewStatic(buf []byte) Slice {
	return Slice{buf: buf, flavor: staticFlavor{}}
}

// ---------------------------------------------------------------------
// managed flavor
// ---------------------------------------------------------------------

type managedFlavor struct{}

func (managedFlavor) copy(s *Slice, offset, length int) Slice {
	src := s.state.(ManagedSource)
	return Slice{
		buf:    s.buf[offset : offset+length],
		flavor: managedFlavor{},
		state:  src.Ref(),
	}
}

func (managedFlavor) sliceInPlace(s *Slice, offset, length int) {
	s.buf = s.buf[offset : offset+length]
}

func (managedFlavor) finish(s *Slice) {
	s.state.(ManagedSource).Unref()
}

// NewManaged initializes a Slice over [offset, offset+length) of src,
// incrementing src's reference count. Returns corkerr.BadRange if the range
// is invalid, in which case no reference is taken.
func NewManaged(src ManagedSource, offset, length int) (Slice, error) {
	total := src.Bytes()
	if err := validateRange(len(total), offset, length); err != nil {
		return Slice{}, err
	}
	return Slice{
		buf:    total[offset : offset+length],
		flavor: managedFlavor{},
		state:  src.Ref(),
	}, nil
}

// ---------------------------------------------------------------------
// copy-once flavor
// ---------------------------------------------------------------------

// copyOnceState tracks whether a copy-once Slice has promoted to managed
// yet. Before promotion, the Slice behaves exactly like a static one;
// promoteIfNeeded is invoked by the first Copy/SliceInPlace call that
// needs to share or narrow the view.
type copyOnceState struct {
	promoted bool
	full     []byte // the full region the slice originally spanned
}

type copyOnceFlavor struct{}

// promotedSource is the ManagedSource a copy-once Slice promotes into: a
// private, already-ref-counted-once copy of the bytes still covered by the
// Slice at the moment of promotion.
type promotedSource struct {
	buf      []byte
	refCount int
}

func (p *promotedSource) Bytes() []byte { return p.buf }
func (p *promotedSource) Ref() ManagedSource {
	p.refCount++
	return p
}
func (p *promotedSource) Unref() {
	p.refCount--
}

// copy promotes s in place (s keeps its own, now-managed view unchanged —
// spec.md §4.4's "exactly the current length bytes") and returns a second
// managed Slice over [offset, offset+length) of the same promoted backing
// array. Note: spec.md §8 scenario 4 states the resulting pointers as
// `d.ptr == s.ptr`; that only holds for offset == 0. For offset > 0 (as in
// the scenario's own copy(d, s, 8, 4)) d's view necessarily starts 8 bytes
// into the shared backing array, so `&d.Bytes()[0] != &s.Bytes()[0]` even
// though both now alias the same promoted allocation. This implementation
// follows the §4.4 prose ("initializes the destination" over the promoted
// copy) rather than the scenario's literal pointer-equality wording.
func (copyOnceFlavor) copy(s *Slice, offset, length int) Slice {
	promoteIfNeeded(s)
	src := s.state.(ManagedSource)
	return Slice{
		buf:    s.buf[offset : offset+length],
		flavor: managedFlavor{},
		state:  src.Ref(),
	}
}

func (copyOnceFlavor) sliceInPlace(s *Slice, offset, length int) {
	promoteIfNeeded(s)
	s.buf = s.buf[offset : offset+length]
	s.flavor = managedFlavor{}
}

// finish is only ever reached while s is still un-promoted: promotion
// swaps s.flavor to managedFlavor, so a promoted copy-once slice finishes
// through managedFlavor.finish instead. An un-promoted copy-once slice
// never took a reference, so there is nothing to release.
func (copyOnceFlavor) finish(s *Slice) {}

// promoteIfNeeded allocates a private copy of the bytes still covered by s
// and converts s's flavor to managed, exactly as spec.md §4.4 describes.
// Promotion only happens once: subsequent Copy/SliceInPlace calls on s (now
// managedFlavor) go through the managed path directly.
func promoteIfNeeded(s *Slice) {
	cos, ok := s.state.(*copyOnceState)
	if !ok || cos.promoted {
		return
	}
	owned := make([]byte, len(s.buf))
	copy(owned, s.buf)
	src := &promotedSource{buf: owned, refCount: 1}
	cos.promoted = true
	s.buf = owned
	s.flavor = managedFlavor{}
	s.state = src
}

// NewCopyOnce initializes a Slice that starts out borrowing ptr (no copy
// taken) and only allocates a private MBUF-equivalent the first time
// sharing or narrowing is actually required.
func NewCopyOnce(buf []byte) Slice {
	return Slice{
		buf:    buf,
		flavor: copyOnceFlavor{},
		state:  &copyOnceState{full: buf},
	}
}

// ---------------------------------------------------------------------
// shared operations
// ---------------------------------------------------------------------

func validateRange(sourceLen, offset, length int) error {
	if offset < 0 || length < 0 {
		return corkerr.New(corkerr.BadRange, "negative offset/length %d/%d", offset, length)
	}
	// offset+length is computed in int arithmetic; guard the overflow
	// spec.md §4.4 calls out explicitly ("implementers must guard against
	// offset + length overflow").
	if offset > sourceLen {
		return corkerr.New(corkerr.BadRange, "offset %d exceeds length %d", offset, sourceLen)
	}
	end := offset + length
	if end < offset || end > sourceLen {
		return corkerr.New(corkerr.BadRange, "range %d:%d exceeds length %d", offset, length, sourceLen)
	}
	return nil
}

// Copy initializes dest as a new Slice over [offset, offset+length) of s,
// per the flavor's sharing policy. On a BAD_RANGE, dest is left empty and
// (per spec.md §9's resolved Open Question) s itself — including an
// un-promoted copy-once s — is left unchanged.
func Copy(s *Slice, offset, length int) (Slice, error) {
	if s == nil || s.flavor == nil {
		return Slice{}, corkerr.New(corkerr.BadRange, "cannot slice a nil slice at %d:%d", offset, length)
	}
	if err := validateRange(len(s.buf), offset, length); err != nil {
		return Slice{}, err
	}
	return s.flavor.copy(s, offset, length), nil
}

// CopyOffset is Copy with length = remaining bytes from offset.
func CopyOffset(s *Slice, offset int) (Slice, error) {
	if s == nil {
		return Slice{}, corkerr.New(corkerr.BadRange, "cannot slice a nil slice at offset %d", offset)
	}
	return Copy(s, offset, len(s.buf)-offset)
}

// SliceInPlace narrows s to [offset, offset+length) of its current view. On
// BAD_RANGE, s is left unchanged.
func SliceInPlace(s *Slice, offset, length int) error {
	if s == nil || s.flavor == nil {
		return corkerr.New(corkerr.BadRange, "cannot slice a nil/empty slice at %d:%d", offset, length)
	}
	if err := validateRange(len(s.buf), offset, length); err != nil {
		return err
	}
	s.flavor.sliceInPlace(s, offset, length)
	return nil
}

// SliceOffset is SliceInPlace with length = remaining bytes from offset.
func SliceOffset(s *Slice, offset int) error {
	if s == nil {
		return corkerr.New(corkerr.BadRange, "cannot slice a nil slice at offset %d", offset)
	}
	return SliceInPlace(s, offset, len(s.buf)-offset)
}

// Finish releases whatever the slice's flavor holds, then clears it, so a
// double Finish is a no-op — mirroring cork_slice_finish.
func Finish(s *Slice) {
	if s == nil || s.flavor == nil {
		return
	}
	s.flavor.finish(s)
	s.clear()
}

// Equal compares two slices by length and byte content, not provenance.
func Equal(a, b *Slice) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return a == b
	}
	return bytes.Equal(a.buf, b.buf)
}
