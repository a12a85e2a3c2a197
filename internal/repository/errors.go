package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a unique constraint would be violated,
	// e.g. registering an email twice.
	ErrDuplicate = errors.New("entity already exists")
)
