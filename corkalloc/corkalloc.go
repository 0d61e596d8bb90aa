// Package corkalloc threads an explicit allocator through gocork's
// constructors, in place of the original library's module-level
// cork_allocator singleton (spec.md §9, "Global mutable state").
package corkalloc

import "github.com/libcork/go-cork/corkerr"

// Allocator is the explicit parameter that spec.md §9 asks for in place of
// a process-global default allocator. Raw mirrors C's malloc: it returns
// (nil, err) instead of aborting, so that OUT_OF_MEMORY (corkerr.OutOfMemory)
// is a real, testable path through components built on top of it.
type Allocator interface {
	// Raw returns a byte slice of exactly n bytes, or an error when the
	// allocation cannot be made (the default Allocator reports a negative n
	// as corkerr.BadRange).
	Raw(n int) ([]byte, error)
}

// stdAllocator is the default Allocator, backed by Go's own allocator. Its
// Raw call cannot practically fail (Go's runtime panics on true OOM rather
// than returning an error), so in this implementation OUT_OF_MEMORY is only
// ever observed when a test or caller supplies a fault-injecting Allocator.
type stdAllocator struct{}

func (stdAllocator) Raw(n int) ([]byte, error) {
	if n < 0 {
		return nil, corkerr.New(corkerr.BadRange, "negative allocation size %d", n)
	}
	return make([]byte, n), nil
}

// Default returns the standard-library-backed Allocator used when no
// Option overrides it.
func Default() Allocator {
	return stdAllocator{}
}

// Func adapts a plain function to the Allocator interface, the same way
// http.HandlerFunc adapts a function to an interface — handy for
// fault-injecting allocators in tests.
type Func func(n int) ([]byte, error)

// Raw implements Allocator.
func (f Func) Raw(n int) ([]byte, error) { return f(n) }
