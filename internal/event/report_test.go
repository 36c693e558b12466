package event

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const fullReport = `{
	"esp_code": "ESP_12345678",
	"airTemp": 22.5,
	"airHumidity": 40,
	"soilMoisture": 30,
	"waterLevel": 80,
	"lightIntensity": 500,
	"minAirTemp": 18,
	"maxAirTemp": 30,
	"minAirHumidity": 30,
	"maxAirHumidity": 60,
	"minSoilMoisture": 25,
	"minLightIntensity": 200,
	"maxLightIntensity": 800,
	"isIrrigating": true,
	"request_id": "req-1"
}`

const minimalReport = `{
	"esp_code": "ESP_12345678",
	"airTemp": 0,
	"airHumidity": 0,
	"soilMoisture": 0,
	"minAirTemp": 0,
	"maxAirTemp": 0,
	"minAirHumidity": 0,
	"maxAirHumidity": 0,
	"minSoilMoisture": 0,
	"isIrrigating": false
}`

func TestDecodeSensorReport_Full(t *testing.T) {
	r, err := DecodeSensorReport([]byte(fullReport))
	if err != nil {
		t.Fatalf("DecodeSensorReport() error = %v", err)
	}

	if r.DeviceCode != "ESP_12345678" {
		t.Errorf("DeviceCode = %q", r.DeviceCode)
	}
	if r.AirTemp != 22.5 || r.AirHumidity != 40 || r.SoilMoisture != 30 {
		t.Errorf("current values = %v/%v/%v", r.AirTemp, r.AirHumidity, r.SoilMoisture)
	}
	if r.WaterLevel == nil || *r.WaterLevel != 80 {
		t.Errorf("WaterLevel = %v, want 80", r.WaterLevel)
	}
	if r.LightIntensity == nil || *r.LightIntensity != 500 {
		t.Errorf("LightIntensity = %v, want 500", r.LightIntensity)
	}
	if r.Ranges.MinAirTemp != 18 || r.Ranges.MaxAirTemp != 30 || r.Ranges.MinSoilMoisture != 25 {
		t.Errorf("Ranges = %+v", r.Ranges)
	}
	if r.Ranges.MinLightIntensity == nil || r.Ranges.MaxLightIntensity == nil {
		t.Error("light bounds not decoded")
	}
	if !r.IsIrrigating {
		t.Error("IsIrrigating = false, want true")
	}
	if r.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", r.RequestID)
	}
}

func TestDecodeSensorReport_ZeroValuesAreNotMissing(t *testing.T) {
	r, err := DecodeSensorReport([]byte(minimalReport))
	if err != nil {
		t.Fatalf("DecodeSensorReport() error = %v", err)
	}
	if r.WaterLevel != nil || r.LightIntensity != nil {
		t.Error("absent optional readings should be nil")
	}
}

func TestDecodeSensorReport_Malformed(t *testing.T) {
	// mutate removes or replaces a field of the full report.
	mutate := func(field string, value any) string {
		var m map[string]any
		if err := json.Unmarshal([]byte(fullReport), &m); err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
		if value == nil {
			delete(m, field)
		} else {
			m[field] = value
		}
		b, _ := json.Marshal(m)
		return string(b)
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "hello"},
		{"json array", "[1,2,3]"},
		{"empty object", "{}"},
		{"missing esp_code", mutate("esp_code", nil)},
		{"invalid esp_code", mutate("esp_code", "ESP_1")},
		{"numeric esp_code", mutate("esp_code", 12345678)},
		{"string temperature", mutate("airTemp", "22.5")},
		{"bool humidity", mutate("airHumidity", true)},
		{"missing soil moisture", mutate("soilMoisture", nil)},
		{"missing min air temp", mutate("minAirTemp", nil)},
		{"string max air temp", mutate("maxAirTemp", "30")},
		{"missing min soil moisture", mutate("minSoilMoisture", nil)},
		{"missing isIrrigating", mutate("isIrrigating", nil)},
		{"string isIrrigating", mutate("isIrrigating", "true")},
		{"string water level", mutate("waterLevel", "high")},
		{"null temperature", strings.Replace(fullReport, `"airTemp": 22.5`, `"airTemp": null`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeSensorReport([]byte(tt.payload))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("DecodeSensorReport() error = %v, want ErrMalformedPayload", err)
			}
			if r != (SensorReport{}) {
				t.Errorf("partial report returned: %+v", r)
			}
		})
	}
}

func TestEncodeReport_Decodes(t *testing.T) {
	light := 300.0
	in := SensorReport{
		DeviceCode:     "ESP_00000042",
		AirTemp:        19.25,
		AirHumidity:    55,
		SoilMoisture:   12,
		LightIntensity: &light,
		Ranges: Ranges{
			MinAirTemp: 15, MaxAirTemp: 28,
			MinAirHumidity: 35, MaxAirHumidity: 70,
			MinSoilMoisture: 20,
		},
		IsIrrigating: true,
		RequestID:    "abc",
	}

	raw, err := EncodeReport(in)
	if err != nil {
		t.Fatalf("EncodeReport() error = %v", err)
	}
	if strings.Contains(string(raw), "waterLevel") {
		t.Errorf("absent water level encoded: %s", raw)
	}

	out, err := DecodeSensorReport(raw)
	if err != nil {
		t.Fatalf("DecodeSensorReport() error = %v", err)
	}
	if out.DeviceCode != in.DeviceCode || out.AirTemp != in.AirTemp || out.Ranges.MinSoilMoisture != 20 {
		t.Errorf("decoded = %+v", out)
	}
	if out.LightIntensity == nil || *out.LightIntensity != light {
		t.Errorf("LightIntensity = %v", out.LightIntensity)
	}
	if !out.IsIrrigating || out.RequestID != "abc" {
		t.Errorf("IsIrrigating/RequestID = %v/%q", out.IsIrrigating, out.RequestID)
	}
}

func TestPeekDeviceCode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{"code only", `{"esp_code":"ESP_99999999"}`, "ESP_99999999", false},
		{"full report", fullReport, "ESP_12345678", false},
		{"missing", `{"airTemp":1}`, "", true},
		{"invalid", `{"esp_code":"esp_99999999"}`, "", true},
		{"not json", `nope`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeekDeviceCode([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Errorf("PeekDeviceCode() error = %v, want ErrMalformedPayload", err)
				}
				return
			}
			if err != nil || string(got) != tt.want {
				t.Errorf("PeekDeviceCode() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestPeekRequestID(t *testing.T) {
	if got := PeekRequestID([]byte(fullReport)); got != "req-1" {
		t.Errorf("PeekRequestID() = %q, want req-1", got)
	}
	if got := PeekRequestID([]byte(minimalReport)); got != "" {
		t.Errorf("PeekRequestID() = %q, want empty", got)
	}
	if got := PeekRequestID([]byte("garbage")); got != "" {
		t.Errorf("PeekRequestID(garbage) = %q, want empty", got)
	}
}
