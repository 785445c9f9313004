package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when an insert violates the unique email
	// constraint.
	ErrEmailTaken = errors.New("email already exists")
)
