package repository

import "errors"

var (
	// ErrNotFound is returned when no record exists for the given key.
	ErrNotFound = errors.New("record not found")

	// ErrMalformedRecord is returned when a persisted document fails
	// schema validation at the store boundary.
	ErrMalformedRecord = errors.New("malformed user record")
)
