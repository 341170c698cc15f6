package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup finds nothing. Store clients also
	// return it when the lookup itself failed; callers cannot tell the two
	// apart and must not try.
	ErrNotFound = errors.New("not found")

	// ErrWriteFailed is returned when a create, patch or increment did not
	// reach the store.
	ErrWriteFailed = errors.New("store write failed")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
