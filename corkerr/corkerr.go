// Package corkerr defines the small error taxonomy shared by every gocork
// component: out-of-memory, bad-range, and invariant-violation failures.
package corkerr

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
	"go.uber.org/zap"
)

// Kind identifies which of the three failure classes an Error belongs to.
type Kind int

const (
	// OutOfMemory is returned when an allocation fails. Callers should
	// propagate it unchanged; components never attempt a fallback
	// allocation.
	OutOfMemory Kind = iota
	// BadRange is returned when an offset/length pair does not describe a
	// valid subset of a buffer or slice. The destination is left cleared
	// or unchanged.
	BadRange
	// InvariantViolation marks a programming error (a leaked pool slot at
	// Close, a leaked GC object at shutdown, use-after-finish on a slice).
	// It is never returned as a value — see Fatal.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case OutOfMemory:
		return "out of memory"
	case BadRange:
		return "bad range"
	case InvariantViolation:
		return "invariant violation"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with a message, backed by github.com/agilira/go-errors
// so that every gocork failure carries the same stack-aware error value the
// rest of the pack's production code uses.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...))
	return &Error{Kind: kind, cause: goerrors.New(msg)}
}

// Is reports whether err is a gocork *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if ce, ok := err.(*Error); ok {
		e = ce
	} else {
		return false
	}
	return e.Kind == kind
}

// Fatal logs (if logger is non-nil) and panics. Used for InvariantViolation
// conditions, which spec.md §7 treats as programming errors rather than
// runtime conditions: "the implementation aborts with a diagnostic."
func Fatal(logger *zap.Logger, format string, args ...any) {
	err := New(InvariantViolation, format, args...)
	if logger != nil {
		logger.Error("invariant violation", zap.Error(err))
	}
	panic(err)
}
