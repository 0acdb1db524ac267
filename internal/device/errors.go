package device

import "errors"

// Domain-specific errors for registry operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrEmptyID is returned when registering a device without an id.
	ErrEmptyID = errors.New("device: id cannot be empty")
)
