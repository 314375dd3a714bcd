package storage

import "errors"

// Storage errors shared by all implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// unique key on an insert-only store.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrForeignKey is returned when an insert references a row that does
	// not exist, e.g. a mint record pointing at a missing bank link.
	ErrForeignKey = errors.New("foreign key violation")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
