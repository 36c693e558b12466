package event

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned when a payload is not valid JSON, has a
// field of the wrong type, or is missing a required field.
var ErrMalformedPayload = errors.New("event: malformed payload")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}
