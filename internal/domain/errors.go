package domain

import "errors"

// Sentinel errors for the application.
var (
	// ErrNotFound covers both "does not exist" and "caller is not allowed
	// to know whether it exists"; handlers must not distinguish the two.
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrConflict     = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal server error")
)
