package errors

import "errors"

var (
	// ErrNotFound is returned for operations on a missing complaint,
	// message, or profile id.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned for mutations the caller's role does
	// not allow. The stored record is left untouched.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrValidation is returned for empty/over-length text or an invalid
	// enum value.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when an operation is rejected because another
	// one is already in flight (e.g. a second assistant send).
	ErrConflict = errors.New("conflict")
	// ErrTransport wraps network failures during streaming.
	ErrTransport = errors.New("transport failed")
)
