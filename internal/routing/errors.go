package routing

import "errors"

// Domain errors returned by the router.
var (
	// ErrUnrecognized is returned by Classify for topics outside the relay's
	// hierarchy.
	ErrUnrecognized = errors.New("routing: unrecognized topic")

	// ErrDeviceCodeRequired is returned by TopicFor in device scope when no
	// valid device code is given.
	ErrDeviceCodeRequired = errors.New("routing: device code required")

	// ErrInvalidScope is returned by New for an unknown scope.
	ErrInvalidScope = errors.New("routing: invalid scope")

	// ErrInvalidPrefix is returned by New for an empty or wildcard prefix.
	ErrInvalidPrefix = errors.New("routing: invalid prefix")
)
