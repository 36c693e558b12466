package registry

import "errors"

// Domain errors for the registry package.
//
//	if errors.Is(err, registry.ErrNotFound) {
//	    // operator has no device yet
//	}
var (
	// ErrInvalidFormat is returned when a device code is not "ESP_" followed
	// by exactly eight digits.
	ErrInvalidFormat = errors.New("registry: invalid device code format")

	// ErrInvalidOperator is returned for an empty operator identifier.
	ErrInvalidOperator = errors.New("registry: invalid operator")

	// ErrNotFound is returned when a lookup key has no entry.
	ErrNotFound = errors.New("registry: not found")
)
