// Package cork is the root of the gocork module: a Go reimplementation of
// libcork's CYCLE (reference-counting cycle collector) and BUFVIEW
// (BUF/MBUF/SLICE/STREAM) components.
//
// The module has no aggregating API of its own — import the component
// package you need directly:
//
//	github.com/libcork/go-cork/pool    // fixed-size-object arena
//	github.com/libcork/go-cork/buffer  // growable owning byte buffer (BUF)
//	github.com/libcork/go-cork/mbuffer // reference-counted byte region (MBUF)
//	github.com/libcork/go-cork/slice   // borrowed/shared byte view (SLICE)
//	github.com/libcork/go-cork/stream  // chunked-consumer interface (STREAM)
//	github.com/libcork/go-cork/gc      // cycle-detecting ref-counted heap (CYCLE)
//	github.com/libcork/go-cork/corkerr   // shared error taxonomy
//	github.com/libcork/go-cork/corkalloc // explicit allocator interface
//
// Every component is owned by exactly one execution context; none of these
// types are safe for concurrent use without external synchronization.
package cork
