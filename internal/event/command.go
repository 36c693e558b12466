package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// Action is what a command asks the device to do.
type Action string

// Supported actions.
const (
	ActionStatus          Action = "status"
	ActionStartIrrigation Action = "start_irrigation"
	ActionStopIrrigation  Action = "stop_irrigation"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionStatus, ActionStartIrrigation, ActionStopIrrigation:
		return true
	}
	return false
}

// Command is an outbound request to a device.
type Command struct {
	DeviceCode registry.DeviceCode `json:"esp_code"`
	Action     Action              `json:"action"`
	RequestID  string              `json:"request_id"`
	Timestamp  time.Time           `json:"timestamp"`
	Params     map[string]any      `json:"params,omitempty"`
}

// NewCommand builds a command with a fresh request ID.
func NewCommand(code registry.DeviceCode, action Action, params map[string]any) (Command, error) {
	if err := code.Validate(); err != nil {
		return Command{}, err
	}
	if !action.Valid() {
		return Command{}, malformed("unknown action %q", action)
	}
	return Command{
		DeviceCode: code,
		Action:     action,
		RequestID:  uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Params:     params,
	}, nil
}

// Encode returns the JSON payload for c.
func (c Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// EncodeCommand builds and encodes a command in one step.
func EncodeCommand(code registry.DeviceCode, action Action, params map[string]any) ([]byte, error) {
	cmd, err := NewCommand(code, action, params)
	if err != nil {
		return nil, err
	}
	return cmd.Encode()
}

// DecodeCommand is the device-side parser for EncodeCommand output.
func DecodeCommand(raw []byte) (Command, error) {
	var w struct {
		ESPCode   *string        `json:"esp_code"`
		Action    Action         `json:"action"`
		RequestID string         `json:"request_id"`
		Timestamp time.Time      `json:"timestamp"`
		Params    map[string]any `json:"params"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return Command{}, malformed("%v", err)
	}
	code, err := requireDeviceCode(w.ESPCode)
	if err != nil {
		return Command{}, err
	}
	if w.Action != "" && !w.Action.Valid() {
		return Command{}, malformed("unknown action %q", w.Action)
	}
	return Command{
		DeviceCode: code,
		Action:     w.Action,
		RequestID:  w.RequestID,
		Timestamp:  w.Timestamp,
		Params:     w.Params,
	}, nil
}
