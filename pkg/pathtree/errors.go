package pathtree

import "errors"

var (
	// ErrIO wraps any failure of the underlying storage driver.
	ErrIO = errors.New("storage i/o failure")

	// ErrEncoding is returned when a node record cannot be (de)serialized.
	ErrEncoding = errors.New("node record encoding failure")

	// ErrInvalidPath is returned for malformed paths.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound is returned when an operation requires an existing node.
	ErrNotFound = errors.New("node not found")

	// ErrOverlappingPaths is returned when copying or moving a subtree into
	// itself or onto one of its ancestors.
	ErrOverlappingPaths = errors.New("source and destination paths overlap")
)
