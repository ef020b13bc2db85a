// Package apperr defines the sentinel errors shared across service layers.
package apperr

import "errors"

var (
	// ErrNotFound indicates the requested guide or file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates an optimistic-concurrency checksum mismatch.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyExists indicates a create targeting an existing path.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidPath indicates a path that is absolute, empty, or escapes
	// the corpus root.
	ErrInvalidPath = errors.New("invalid path")
)
