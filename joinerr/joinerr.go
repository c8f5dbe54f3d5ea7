// Package joinerr defines the sentinel error kinds shared across the
// engine's packages (returned by colpage and planexec). Callers match
// them with errors.Is; call sites wrap them with github.com/pkg/errors
// to attach row/column/page context without losing the sentinel.
package joinerr

import "errors"

var (
	// ErrUnsupportedKeyType is returned when a join key's type is not
	// one of the types the active code path supports (I32, or VARCHAR
	// via packed reference).
	ErrUnsupportedKeyType = errors.New("joinengine: unsupported join key type")

	// ErrBadReference is returned when a packed string reference points
	// outside the bounds of its table, column, page, or offset table.
	ErrBadReference = errors.New("joinengine: bad packed string reference")

	// ErrOutOfMemory names allocator exhaustion. No package in this
	// module returns it: the slab allocator has no error path and
	// allocates a fresh block whenever its free list is empty.
	ErrOutOfMemory = errors.New("joinengine: allocator exhausted")

	// ErrInvariantViolation signals an internal invariant failure, not
	// attributable to caller input.
	ErrInvariantViolation = errors.New("joinengine: invariant violation")

	// ErrUnsupportedPlanShape is returned when a plan node occupies a
	// hash-join position but is not a recognized join shape.
	ErrUnsupportedPlanShape = errors.New("joinengine: unsupported plan shape")
)
