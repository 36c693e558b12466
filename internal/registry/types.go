package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// DeviceCode identifies a field device, e.g. "ESP_12345678".
// Codes are case-sensitive and never change once issued.
type DeviceCode string

// OperatorID is an opaque chat endpoint (a Telegram chat id in base 10).
type OperatorID string

// deviceCodePattern is the only accepted device code shape.
var deviceCodePattern = regexp.MustCompile(`^ESP_[0-9]{8}$`)

// ParseDeviceCode validates s (after trimming surrounding whitespace) and
// returns it as a DeviceCode.
func ParseDeviceCode(s string) (DeviceCode, error) {
	code := DeviceCode(strings.TrimSpace(s))
	if err := code.Validate(); err != nil {
		return "", err
	}
	return code, nil
}

// Validate returns ErrInvalidFormat unless c matches ESP_ + 8 digits.
func (c DeviceCode) Validate() error {
	if !deviceCodePattern.MatchString(string(c)) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, string(c))
	}
	return nil
}

func (c DeviceCode) String() string { return string(c) }

// Validate returns ErrInvalidOperator for an empty identifier.
func (o OperatorID) Validate() error {
	if strings.TrimSpace(string(o)) == "" {
		return ErrInvalidOperator
	}
	return nil
}

func (o OperatorID) String() string { return string(o) }

// Registration describes the outcome of a successful Register call.
type Registration struct {
	Device   DeviceCode
	Operator OperatorID

	// PreviousDevice is the device the operator was bound to before, if it
	// differs from Device. Its reverse entry has been removed.
	PreviousDevice DeviceCode

	// DisplacedOperator is the operator that held Device before, if it
	// differs from Operator. That operator no longer has a device.
	DisplacedOperator OperatorID
}
