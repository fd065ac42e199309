// Package kerrors defines the kernel's error taxonomy (spec.md §7). The
// kinds below are sentinels, not concrete types: callers compare with
// errors.Is against the values in this package and wrap them with
// fmt.Errorf("...: %w", kind) for context, following the wrapping idiom
// fs/fs.go uses throughout the teacher codebase.
package kerrors

import "errors"

var (
	// InvariantViolation signals an internal bug: locking-order violation,
	// reference-count underflow, freeing an unmarked sector. Never surfaced
	// to user land.
	InvariantViolation = errors.New("invariant violation")

	// OutOfSpace signals the free map is exhausted or a file has hit
	// MAX_FILE_SIZE. Surfaced as a false/negative result, never as a panic.
	OutOfSpace = errors.New("out of space")

	// NotFound signals path resolution or directory lookup failed.
	NotFound = errors.New("not found")

	// AlreadyExists signals CreateFile/CreateDirectory onto a taken name.
	AlreadyExists = errors.New("already exists")

	// NotEmpty signals RemoveDirectory on a populated directory.
	NotEmpty = errors.New("not empty")

	// BadArgument signals a null user pointer, oversize name, non-positive
	// size, or similar caller error.
	BadArgument = errors.New("bad argument")

	// ReadOnlyViolation signals a write to a page marked read-only. The
	// trap dispatcher turns this into a process-terminating fault rather
	// than returning it to the faulting code.
	ReadOnlyViolation = errors.New("read-only violation")
)

// Is reports whether err wraps kind, via errors.Is.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}


