package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// For results this means another result has the same URL.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrStoreUnavailable indicates no result store is configured.
	ErrStoreUnavailable = errors.New("result store unavailable")

	// ErrNoDefaultStatus indicates no status is flagged as the default.
	ErrNoDefaultStatus = errors.New("no default status configured")
)
