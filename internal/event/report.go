package event

import (
	"encoding/json"

	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// SensorReport is one snapshot from a field device. It replaces any earlier
// report for display purposes; nothing is retained.
type SensorReport struct {
	DeviceCode   registry.DeviceCode
	AirTemp      float64
	AirHumidity  float64
	SoilMoisture float64

	// Optional readings, nil when the device has no such sensor.
	WaterLevel     *float64
	LightIntensity *float64

	Ranges       Ranges
	IsIrrigating bool

	// RequestID echoes the command that triggered the report, if any.
	RequestID string
}

// Ranges are the acceptable bounds the device is configured with.
type Ranges struct {
	MinAirTemp      float64
	MaxAirTemp      float64
	MinAirHumidity  float64
	MaxAirHumidity  float64
	MinSoilMoisture float64

	MinLightIntensity *float64
	MaxLightIntensity *float64
}

// reportWire is the JSON shape of a report. Pointers distinguish absent
// fields from zero values.
type reportWire struct {
	ESPCode           *string  `json:"esp_code"`
	AirTemp           *float64 `json:"airTemp"`
	AirHumidity       *float64 `json:"airHumidity"`
	SoilMoisture      *float64 `json:"soilMoisture"`
	WaterLevel        *float64 `json:"waterLevel,omitempty"`
	LightIntensity    *float64 `json:"lightIntensity,omitempty"`
	MinAirTemp        *float64 `json:"minAirTemp"`
	MaxAirTemp        *float64 `json:"maxAirTemp"`
	MinAirHumidity    *float64 `json:"minAirHumidity"`
	MaxAirHumidity    *float64 `json:"maxAirHumidity"`
	MinSoilMoisture   *float64 `json:"minSoilMoisture"`
	MinLightIntensity *float64 `json:"minLightIntensity,omitempty"`
	MaxLightIntensity *float64 `json:"maxLightIntensity,omitempty"`
	IsIrrigating      *bool    `json:"isIrrigating"`
	RequestID         string   `json:"request_id,omitempty"`
}

// DecodeSensorReport parses a sensor report. Every measured value, its
// bounds and isIrrigating are required; waterLevel, lightIntensity and the
// light bounds are optional.
func DecodeSensorReport(raw []byte) (SensorReport, error) {
	var w reportWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return SensorReport{}, malformed("%v", err)
	}

	code, err := requireDeviceCode(w.ESPCode)
	if err != nil {
		return SensorReport{}, err
	}

	required := []struct {
		name  string
		value *float64
	}{
		{"airTemp", w.AirTemp},
		{"airHumidity", w.AirHumidity},
		{"soilMoisture", w.SoilMoisture},
		{"minAirTemp", w.MinAirTemp},
		{"maxAirTemp", w.MaxAirTemp},
		{"minAirHumidity", w.MinAirHumidity},
		{"maxAirHumidity", w.MaxAirHumidity},
		{"minSoilMoisture", w.MinSoilMoisture},
	}
	for _, f := range required {
		if f.value == nil {
			return SensorReport{}, malformed("missing %s", f.name)
		}
	}
	if w.IsIrrigating == nil {
		return SensorReport{}, malformed("missing isIrrigating")
	}

	return SensorReport{
		DeviceCode:     code,
		AirTemp:        *w.AirTemp,
		AirHumidity:    *w.AirHumidity,
		SoilMoisture:   *w.SoilMoisture,
		WaterLevel:     w.WaterLevel,
		LightIntensity: w.LightIntensity,
		Ranges: Ranges{
			MinAirTemp:        *w.MinAirTemp,
			MaxAirTemp:        *w.MaxAirTemp,
			MinAirHumidity:    *w.MinAirHumidity,
			MaxAirHumidity:    *w.MaxAirHumidity,
			MinSoilMoisture:   *w.MinSoilMoisture,
			MinLightIntensity: w.MinLightIntensity,
			MaxLightIntensity: w.MaxLightIntensity,
		},
		IsIrrigating: *w.IsIrrigating,
		RequestID:    w.RequestID,
	}, nil
}

// EncodeReport is the device-side encoder for a SensorReport.
func EncodeReport(r SensorReport) ([]byte, error) {
	code := string(r.DeviceCode)
	irrigating := r.IsIrrigating
	return json.Marshal(reportWire{
		ESPCode:           &code,
		AirTemp:           &r.AirTemp,
		AirHumidity:       &r.AirHumidity,
		SoilMoisture:      &r.SoilMoisture,
		WaterLevel:        r.WaterLevel,
		LightIntensity:    r.LightIntensity,
		MinAirTemp:        &r.Ranges.MinAirTemp,
		MaxAirTemp:        &r.Ranges.MaxAirTemp,
		MinAirHumidity:    &r.Ranges.MinAirHumidity,
		MaxAirHumidity:    &r.Ranges.MaxAirHumidity,
		MinSoilMoisture:   &r.Ranges.MinSoilMoisture,
		MinLightIntensity: r.Ranges.MinLightIntensity,
		MaxLightIntensity: r.Ranges.MaxLightIntensity,
		IsIrrigating:      &irrigating,
		RequestID:         r.RequestID,
	})
}

// PeekDeviceCode extracts and validates esp_code without decoding the rest
// of the payload.
func PeekDeviceCode(raw []byte) (registry.DeviceCode, error) {
	var w struct {
		ESPCode *string `json:"esp_code"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return "", malformed("%v", err)
	}
	return requireDeviceCode(w.ESPCode)
}

// PeekRequestID returns the request_id field, or "" when it is absent or
// the payload does not parse.
func PeekRequestID(raw []byte) string {
	var w struct {
		RequestID string `json:"request_id"`
	}
	if json.Unmarshal(raw, &w) != nil {
		return ""
	}
	return w.RequestID
}

func requireDeviceCode(s *string) (registry.DeviceCode, error) {
	if s == nil {
		return "", malformed("missing esp_code")
	}
	code := registry.DeviceCode(*s)
	if err := code.Validate(); err != nil {
		return "", malformed("esp_code: %v", err)
	}
	return code, nil
}
