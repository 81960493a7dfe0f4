package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates malformed request data.
	ErrInvalidInput = errors.New("invalid input")
)
