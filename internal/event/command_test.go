package event

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/irrigation-relay/internal/registry"
)

func TestEncodeCommand_RoundTrip(t *testing.T) {
	actions := []Action{ActionStatus, ActionStartIrrigation, ActionStopIrrigation}

	for _, action := range actions {
		t.Run(string(action), func(t *testing.T) {
			raw, err := EncodeCommand("ESP_12345678", action, map[string]any{"duration": 120.0})
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}

			cmd, err := DecodeCommand(raw)
			if err != nil {
				t.Fatalf("DecodeCommand() error = %v", err)
			}
			if cmd.DeviceCode != "ESP_12345678" {
				t.Errorf("DeviceCode = %q, want ESP_12345678", cmd.DeviceCode)
			}
			if cmd.Action != action {
				t.Errorf("Action = %q, want %q", cmd.Action, action)
			}
			if _, err := uuid.Parse(cmd.RequestID); err != nil {
				t.Errorf("RequestID %q is not a UUID", cmd.RequestID)
			}
			if time.Since(cmd.Timestamp) > time.Minute {
				t.Errorf("Timestamp = %v", cmd.Timestamp)
			}
			if cmd.Params["duration"] != 120.0 {
				t.Errorf("Params = %v", cmd.Params)
			}
		})
	}
}

func TestEncodeCommand_WireShape(t *testing.T) {
	raw, err := EncodeCommand("ESP_12345678", ActionStatus, nil)
	if err != nil {
		t.Fatalf("EncodeCommand() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, key := range []string{"esp_code", "action", "request_id", "timestamp"} {
		if _, ok := m[key]; !ok {
			t.Errorf("payload missing %q: %s", key, raw)
		}
	}
	if _, ok := m["params"]; ok {
		t.Errorf("nil params should be omitted: %s", raw)
	}
}

func TestNewCommand_UniqueRequestIDs(t *testing.T) {
	a, _ := NewCommand("ESP_12345678", ActionStatus, nil)
	b, _ := NewCommand("ESP_12345678", ActionStatus, nil)
	if a.RequestID == b.RequestID {
		t.Errorf("request IDs collide: %q", a.RequestID)
	}
}

func TestNewCommand_Invalid(t *testing.T) {
	if _, err := NewCommand("ESP_1", ActionStatus, nil); !errors.Is(err, registry.ErrInvalidFormat) {
		t.Errorf("bad code error = %v, want ErrInvalidFormat", err)
	}
	if _, err := NewCommand("ESP_12345678", "explode", nil); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("bad action error = %v, want ErrMalformedPayload", err)
	}
}

func TestDecodeCommand_Malformed(t *testing.T) {
	tests := []string{
		`not json`,
		`{}`,
		`{"esp_code":"ESP_1"}`,
		`{"esp_code":"ESP_12345678","action":"dance"}`,
	}
	for _, payload := range tests {
		if _, err := DecodeCommand([]byte(payload)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("DecodeCommand(%s) error = %v, want ErrMalformedPayload", payload, err)
		}
	}
}

func TestDecodeCommand_LegacyCodeOnly(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"esp_code":"ESP_12345678"}`))
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	if cmd.DeviceCode != "ESP_12345678" || cmd.Action != "" {
		t.Errorf("DecodeCommand() = %+v", cmd)
	}
}
