package store

import "errors"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique-constraint violations.
	ErrConflict = errors.New("already exists")
	// ErrUnavailable is returned when the database cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)
