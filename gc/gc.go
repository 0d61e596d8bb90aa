// Package gc implements gocork's CYCLE component (spec.md §4.6): a
// non-thread-safe, reference-counting heap with Bacon & Rajan synchronous
// trial-deletion cycle collection.
//
// A GC context is owned by exactly one execution context (spec.md §5); it
// does not lock anything, because there is nothing to lock against.
package gc

import (
	"go.uber.org/zap"

	"github.com/libcork/go-cork/corkalloc"
	"github.com/libcork/go-cork/corkerr"
	"github.com/libcork/go-cork/pool"
)

// Color is a managed object's role in the cycle-collection state machine
// (spec.md §3's "CYCLE header").
type Color int

const (
	// Black means in-use or free — not suspected of participating in a cycle.
	Black Color = iota
	// Gray means provisionally cyclic, during MarkGray.
	Gray
	// White means confirmed cyclic, during Scan/CollectWhite.
	White
	// Purple means a possible cycle root, awaiting trial deletion.
	Purple
)

// Object is the contract a CYCLE-managed type must satisfy: a finalizer and
// a child enumerator. Recurse must visit every child handle exactly once,
// in a stable order, and must tolerate nil children (spec.md §6's "Recurse
// callback" contract); it corresponds to the original's per-type
// cork_gc_obj_iface.
type Object interface {
	// Free finalizes object-owned, non-GC resources. It must not touch
	// GC-managed children — the collector handles their reference counts
	// itself, both before and after this call depending on the path.
	Free()
	// Recurse invokes visit once for every child handle this object holds,
	// including nil ones (visit itself ignores nil).
	Recurse(visit func(child *Handle))
}

// Handle is the GC header for one managed object — spec.md's "CYCLE
// header." Handles are carved from a pool.Pool[Handle] (spec.md §2: "CYCLE
// ... uses POOL internally for book-keeping"), so a release that isn't
// buffered returns its Handle to the pool instead of waiting on the Go
// runtime's own collector.
type Handle struct {
	obj      Object
	refCount int
	color    Color
	buffered bool
}

// DefaultRootBufferBound is the root buffer's capacity before it
// self-triggers a collect() — ROOTS_SIZE in the original, now a
// constructor option instead of a compile-time constant (a REDESIGN FLAG:
// spec.md's fixed 1024-entry array becomes a configurable bound backed by a
// Go slice and a Handle pool, not a raw C array of pointers).
const DefaultRootBufferBound = 1024

type cfg struct {
	rootBufferBound int
	alloc           corkalloc.Allocator
	logger          *zap.Logger
}

// Option configures a GC context at construction.
type Option func(*cfg)

// WithRootBufferBound overrides the root buffer's capacity.
func WithRootBufferBound(n int) Option {
	return func(c *cfg) { c.rootBufferBound = n }
}

// WithAllocator overrides the allocator used for the Handle pool's blocks.
func WithAllocator(a corkalloc.Allocator) Option {
	return func(c *cfg) { c.alloc = a }
}

// WithLogger installs a debug logger, the runtime equivalent of the
// original's compile-time CORK_DEBUG_GC tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) { c.logger = l }
}

// GC is a reference-counting heap with cycle collection.
type GC struct {
	cfg     cfg
	handles *pool.Pool[Handle]
	roots   []*Handle
}

// New creates an empty GC context.
func New(opts ...Option) *GC {
	c := cfg{
		rootBufferBound: DefaultRootBufferBound,
		alloc:           corkalloc.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.rootBufferBound <= 0 {
		c.rootBufferBound = DefaultRootBufferBound
	}
	return &GC{
		cfg: c,
		handles: pool.New[Handle](
			pool.WithAllocator[Handle](c.alloc),
			pool.WithLogger[Handle](c.logger),
		),
	}
}

// Alloc registers obj with the collector and returns its Handle, with
// reference count 1 and color Black — cork_gc_alloc.
func (gc *GC) Alloc(obj Object) (*Handle, error) {
	h, err := gc.handles.Get()
	if err != nil {
		return nil, corkerr.New(corkerr.OutOfMemory, "allocating gc handle: %v", err)
	}
	h.obj = obj
	h.refCount = 1
	h.color = Black
	h.buffered = false
	if gc.cfg.logger != nil {
		gc.cfg.logger.Debug("gc: allocated object")
	}
	return h, nil
}

// Incref increments h's reference count and forces it Black: an object
// receiving a new external reference cannot be suspected of being cyclic
// (cork_gc_incref). A nil h is ignored.
func (gc *GC) Incref(h *Handle) {
	if h == nil {
		return
	}
	h.refCount++
	h.color = Black
	if gc.cfg.logger != nil {
		gc.cfg.logger.Debug("gc: incref", zap.Int("ref_count", h.refCount))
	}
}

// Decref decrements h's reference count; at zero it releases the object,
// otherwise it marks h as a possible cycle root (cork_gc_decref). A nil h
// is ignored.
func (gc *GC) Decref(h *Handle) {
	if h == nil {
		return
	}
	h.refCount--
	if gc.cfg.logger != nil {
		gc.cfg.logger.Debug("gc: decref", zap.Int("ref_count", h.refCount))
	}
	if h.refCount == 0 {
		gc.release(h)
	} else {
		gc.possibleRoot(h)
	}
}

// release recurses into h's children (dropping the references h itself
// held), marks h Black, and — unless h is still buffered as a root
// candidate — finalizes and frees it immediately (cork_gc_release).
func (gc *GC) release(h *Handle) {
	h.obj.Recurse(func(child *Handle) { gc.Decref(child) })
	h.color = Black
	if !h.buffered {
		gc.free(h)
	}
}

// free runs obj's finalizer and returns the Handle to the pool. It must
// never be reached with outstanding children references still live; the
// collector is responsible for having already decremented them.
func (gc *GC) free(h *Handle) {
	h.obj.Free()
	h.obj = nil
	gc.handles.Put(h)
}

// possibleRoot marks h as a suspected cycle root, enqueueing it into the
// root buffer the first time (cork_gc_possible_root). If the buffer is
// full, a collect runs first.
func (gc *GC) possibleRoot(h *Handle) {
	if h.color == Purple {
		return
	}
	h.color = Purple
	if !h.buffered {
		h.buffered = true
		if len(gc.roots) >= gc.cfg.rootBufferBound {
			gc.Collect()
		}
		gc.roots = append(gc.roots, h)
	}
}

// Collect runs one round of Bacon & Rajan trial deletion over the current
// root buffer: MarkRoots, then (via MarkGray) ScanRoots/Scan, then
// CollectRoots/CollectWhite (spec.md §4.6). It is also invoked implicitly
// by possibleRoot when the root buffer fills.
func (gc *GC) Collect() {
	if gc.cfg.logger != nil {
		gc.cfg.logger.Debug("gc: collecting cycles", zap.Int("roots", len(gc.roots)))
	}
	gc.markRoots()
	gc.scanRoots()
	gc.collectRoots()
}

// markRoots is pass 1: for each still-purple candidate, MarkGray it;
// otherwise it was already handled by an intervening release, so drop it
// from the buffer, freeing it outright if it turned out to be a Black,
// unreferenced straggler.
func (gc *GC) markRoots() {
	for i, h := range gc.roots {
		if h.color == Purple {
			gc.markGray(h)
		} else {
			h.buffered = false
			gc.roots[i] = nil
			if h.color == Black && h.refCount == 0 {
				gc.free(h)
			}
		}
	}
}

// markGray is pass 2: provisionally mark h and its transitive children
// gray, decrementing each child's count to strip the "internal" reference
// h itself contributes.
func (gc *GC) markGray(h *Handle) {
	if h.color == Gray {
		return
	}
	h.color = Gray
	h.obj.Recurse(func(child *Handle) {
		if child == nil {
			return
		}
		child.refCount--
		gc.markGray(child)
	})
}

// scanRoots is pass 3 over the buffer: Scan every remaining candidate.
func (gc *GC) scanRoots() {
	for _, h := range gc.roots {
		if h != nil {
			gc.scan(h)
		}
	}
}

// scan decides, for a gray object, whether the decrements in markGray left
// it with any remaining (external) references. If so it is not garbage:
// scanBlack restores it and its children. Otherwise it provisionally
// becomes white and the decision recurses into its children.
func (gc *GC) scan(h *Handle) {
	if h.color != Gray {
		return
	}
	if h.refCount > 0 {
		gc.scanBlack(h)
		return
	}
	h.color = White
	h.obj.Recurse(func(child *Handle) {
		if child == nil {
			return
		}
		gc.scan(child)
	})
}

// scanBlack restores h (and, recursively, any child it had provisionally
// decremented) to Black, re-incrementing the counts markGray subtracted.
func (gc *GC) scanBlack(h *Handle) {
	h.color = Black
	h.obj.Recurse(func(child *Handle) {
		if child == nil {
			return
		}
		child.refCount++
		if child.color != Black {
			gc.scanBlack(child)
		}
	})
}

// collectRoots is pass 4: sweep the buffer, freeing any object still
// White, then reset the buffer entirely.
func (gc *GC) collectRoots() {
	for _, h := range gc.roots {
		if h == nil {
			continue
		}
		h.buffered = false
		gc.collectWhite(h)
	}
	gc.roots = gc.roots[:0]
}

// collectWhite frees h (and, recursively, its children) if it is confirmed
// garbage — White and no longer buffered by some other still-pending root.
// h is marked Black first so a diamond-shaped reference graph never visits
// the same object twice.
func (gc *GC) collectWhite(h *Handle) {
	if h.color != White || h.buffered {
		return
	}
	h.color = Black
	h.obj.Recurse(func(child *Handle) {
		if child == nil {
			return
		}
		gc.collectWhite(child)
	})
	gc.free(h)
}

// Close runs a final Collect, then closes the Handle pool. Any object still
// live at this point holds an outstanding Handle, so the pool's
// outstanding-slot check raises an INVARIANT_VIOLATION (spec.md §4.6's
// "leaked objects at shutdown are reported as fatal"). The root buffer is
// also checked, though Collect always leaves it empty.
func (gc *GC) Close() {
	gc.Collect()
	if len(gc.roots) != 0 {
		corkerr.Fatal(gc.cfg.logger, "gc closed with %d leaked root(s)", len(gc.roots))
	}
	gc.handles.Close()
}
