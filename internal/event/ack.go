package event

import (
	"encoding/json"
	"strings"

	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// Ack is a device's answer to an irrigation start or stop command.
type Ack struct {
	DeviceCode registry.DeviceCode
	Success    bool
	Message    string
	RequestID  string

	// IsIrrigating is the device's state after handling the command, when
	// it reports one.
	IsIrrigating *bool
}

type ackWire struct {
	ESPCode      *string `json:"esp_code"`
	Success      *bool   `json:"success,omitempty"`
	Status       *string `json:"status,omitempty"`
	Message      string  `json:"message,omitempty"`
	RequestID    string  `json:"request_id,omitempty"`
	IsIrrigating *bool   `json:"isIrrigating,omitempty"`
}

// DecodeAck parses an acknowledgement. The outcome comes from the boolean
// success field, or else from a status string.
func DecodeAck(raw []byte) (Ack, error) {
	var w ackWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Ack{}, malformed("%v", err)
	}
	code, err := requireDeviceCode(w.ESPCode)
	if err != nil {
		return Ack{}, err
	}

	var success bool
	switch {
	case w.Success != nil:
		success = *w.Success
	case w.Status != nil:
		switch strings.ToLower(strings.TrimSpace(*w.Status)) {
		case "ok", "success", "started", "stopped":
			success = true
		case "error", "failed", "fail":
			success = false
		default:
			return Ack{}, malformed("unknown status %q", *w.Status)
		}
	default:
		return Ack{}, malformed("missing success or status")
	}

	return Ack{
		DeviceCode:   code,
		Success:      success,
		Message:      w.Message,
		RequestID:    w.RequestID,
		IsIrrigating: w.IsIrrigating,
	}, nil
}

// EncodeAck is the device-side encoder for an Ack.
func EncodeAck(a Ack) ([]byte, error) {
	code := string(a.DeviceCode)
	success := a.Success
	return json.Marshal(ackWire{
		ESPCode:      &code,
		Success:      &success,
		Message:      a.Message,
		RequestID:    a.RequestID,
		IsIrrigating: a.IsIrrigating,
	})
}
