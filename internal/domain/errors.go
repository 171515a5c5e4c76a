package domain

import "errors"

// Client errors. Their messages are part of the HTTP contract.
var (
	ErrMethodNotAllowed     = errors.New("Method not allowed")
	ErrUnsupportedMediaType = errors.New("Expected multipart/form-data")
	ErrMissingBoundary      = errors.New("Missing boundary")
	ErrNoFileField          = errors.New("No file field found (name must be 'file')")
)

// Internal errors. Logged in full, surfaced to clients as a generic failure.
var (
	ErrMalformedPart  = errors.New("malformed multipart part: missing header separator")
	ErrStorageFailure = errors.New("blob storage failure")
	ErrBodyRead       = errors.New("failed to read request body")
)

// IsClientError reports whether err is one of the request-shape errors
func IsClientError(err error) bool {
	return errors.Is(err, ErrMethodNotAllowed) ||
		errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrMissingBoundary) ||
		errors.Is(err, ErrNoFileField)
}
