package storage

import "errors"

// Storage errors shared by every ledger backend.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record at an address
	// that is already taken. Creation is the exactly-once lock, so an insert
	// never overwrites.
	ErrDuplicateKey = errors.New("duplicate key: record already exists")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a unit could not be serialized against a
	// concurrent unit. Nothing was committed; the caller may retry.
	ErrConflict = errors.New("conflict: concurrent unit touched the same records")
)
