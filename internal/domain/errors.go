package domain

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no active record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when creating a record would violate a
	// uniqueness constraint (integration ID, link code, agency API key).
	ErrDuplicateKey = errors.New("duplicate key")
)
