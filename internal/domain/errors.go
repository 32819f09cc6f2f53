package domain

import "errors"

// Sentinel errors shared by the service layer. Handlers translate these to
// HTTP statuses; everything else surfaces as a generic failure message.
var (
	// ErrValidation marks advisory validation failures: the operation was
	// not attempted. Wrap it with the field-specific message.
	ErrValidation = errors.New("validation error")

	// ErrForbidden is returned when a non-admin attempts a destructive
	// operation (record or user deletion).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
