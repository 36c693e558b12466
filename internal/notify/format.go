package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/irrigation-relay/internal/event"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// FormatReport renders r with the fixed status template.
func FormatReport(r event.SensorReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🌱 Irrigation Status for ESP32 (%s)\n\n", r.DeviceCode)

	b.WriteString("Current Values:\n")
	fmt.Fprintf(&b, "- 🌡️ Air Temperature: %s°C\n", num(r.AirTemp))
	fmt.Fprintf(&b, "- 💧 Air Humidity: %s%%\n", num(r.AirHumidity))
	fmt.Fprintf(&b, "- 🌿 Soil Moisture: %s%%\n", num(r.SoilMoisture))
	if r.LightIntensity != nil {
		fmt.Fprintf(&b, "- 💡 Light Intensity: %s lux\n", num(*r.LightIntensity))
	}
	if r.WaterLevel != nil {
		fmt.Fprintf(&b, "- 🚰 Water Level: %s%%\n", num(*r.WaterLevel))
	}

	rg := r.Ranges
	b.WriteString("\nOptimal Ranges:\n")
	fmt.Fprintf(&b, "- 🌡️ Air Temperature: %s°C - %s°C\n", num(rg.MinAirTemp), num(rg.MaxAirTemp))
	fmt.Fprintf(&b, "- 💧 Air Humidity: %s%% - %s%%\n", num(rg.MinAirHumidity), num(rg.MaxAirHumidity))
	fmt.Fprintf(&b, "- 🌿 Soil Moisture: ≥ %s%%\n", num(rg.MinSoilMoisture))
	if rg.MinLightIntensity != nil && rg.MaxLightIntensity != nil {
		fmt.Fprintf(&b, "- 💡 Light Intensity: %s lux - %s lux\n", num(*rg.MinLightIntensity), num(*rg.MaxLightIntensity))
	}

	b.WriteString("\nIrrigation Status:\n")
	if r.IsIrrigating {
		b.WriteString("- 💧 Irrigation: Active ✅")
	} else {
		b.WriteString("- 💧 Irrigation: Inactive ❌")
	}
	return b.String()
}

// FormatAck renders a start/stop acknowledgement.
func FormatAck(action event.Action, ack event.Ack) string {
	verb := "update irrigation"
	switch action {
	case event.ActionStartIrrigation:
		if ack.Success {
			return withDetail(fmt.Sprintf("🚰 Irrigation started on ESP32 (%s)!", ack.DeviceCode), ack.Message)
		}
		verb = "start irrigation"
	case event.ActionStopIrrigation:
		if ack.Success {
			return withDetail(fmt.Sprintf("🛑 Irrigation stopped on ESP32 (%s)!", ack.DeviceCode), ack.Message)
		}
		verb = "stop irrigation"
	default:
		if ack.Success {
			return withDetail(fmt.Sprintf("✅ ESP32 (%s) confirmed the request.", ack.DeviceCode), ack.Message)
		}
	}
	return withDetail(fmt.Sprintf("⚠️ ESP32 (%s) could not %s.", ack.DeviceCode, verb), ack.Message)
}

// FormatTimeout renders the notice sent when a device does not answer.
func FormatTimeout(code registry.DeviceCode, action event.Action) string {
	return fmt.Sprintf("⏱️ ESP32 (%s) did not answer the %s request. It may be offline.",
		code, strings.ReplaceAll(string(action), "_", " "))
}

func withDetail(text, detail string) string {
	if detail == "" {
		return text
	}
	return text + "\n" + detail
}

// num formats v without trailing zeros: 22.5, 40, 0.125.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
