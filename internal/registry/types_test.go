package registry

import (
	"errors"
	"testing"
)

func TestParseDeviceCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DeviceCode
		wantErr bool
	}{
		{name: "valid", input: "ESP_12345678", want: "ESP_12345678"},
		{name: "surrounding whitespace trimmed", input: "  ESP_00000001\n", want: "ESP_00000001"},
		{name: "lowercase prefix", input: "esp_12345678", wantErr: true},
		{name: "seven digits", input: "ESP_1234567", wantErr: true},
		{name: "nine digits", input: "ESP_123456789", wantErr: true},
		{name: "letters in suffix", input: "ESP_ABC12345", wantErr: true},
		{name: "missing underscore", input: "ESP12345678", wantErr: true},
		{name: "non-ascii digits", input: "ESP_١٢٣٤٥٦٧٨", wantErr: true},
		{name: "embedded space", input: "ESP_1234 5678", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeviceCode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("ParseDeviceCode(%q) error = %v, want ErrInvalidFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDeviceCode(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDeviceCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOperatorID_Validate(t *testing.T) {
	if err := OperatorID("").Validate(); !errors.Is(err, ErrInvalidOperator) {
		t.Errorf("empty operator error = %v, want ErrInvalidOperator", err)
	}
	if err := OperatorID("   ").Validate(); !errors.Is(err, ErrInvalidOperator) {
		t.Errorf("blank operator error = %v, want ErrInvalidOperator", err)
	}
	if err := OperatorID("424242").Validate(); err != nil {
		t.Errorf("valid operator error = %v", err)
	}
}
