package errors

import "errors"

var (
	ErrNotFound = errors.New("listing not found")

	ErrInvalidID = errors.New("invalid listing ID format")

	// ErrRoomsExhausted means the conditional decrement on rooms_available
	// matched no row: every room is already held.
	ErrRoomsExhausted = errors.New("no rooms available")
)
