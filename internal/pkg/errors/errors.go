package errors

import "errors"

// Common application errors
var (
	// ErrNotFound is used when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is used for authentication failures (missing or invalid token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is used when the caller lacks the rights for an action,
	// e.g. a parent touching another family's child.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is used for invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is used for state conflicts such as a duplicate block.
	ErrConflict = errors.New("resource state conflict")

	// ErrSuspended is used when the account has been suspended by an admin.
	ErrSuspended = errors.New("account suspended")

	// ErrUnavailable is used when an upstream dependency cannot serve the request.
	ErrUnavailable = errors.New("service unavailable")
)
