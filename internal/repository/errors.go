package repository

import "errors"

var (
	// ErrAlreadyBooked is returned when a conditional update finds the row
	// already claimed or no longer AVAILABLE.
	ErrAlreadyBooked = errors.New("availability already booked")
	// ErrDuplicate is returned when a row with the same natural key exists.
	ErrDuplicate = errors.New("duplicate row")
	// ErrNotFound is returned by mutations that matched no row. Lookups
	// return nil, nil instead.
	ErrNotFound = errors.New("row not found")
)
