package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementRelayEvents is the measurement written by WriteRelayEvent.
const MeasurementRelayEvents = "relay_events"

// WriteRelayEvent records one relay event, e.g. a report delivery or an
// inbound bus message, tagged by event kind, device code and outcome.
//
//	client.WriteRelayEvent("report", "ESP_12345678", "delivered")
func (c *Client) WriteRelayEvent(event, deviceCode, outcome string) {
	c.WriteRelayEventAt(event, deviceCode, outcome, time.Now())
}

// WriteRelayEventAt is WriteRelayEvent with an explicit timestamp.
func (c *Client) WriteRelayEventAt(event, deviceCode, outcome string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementRelayEvents,
		map[string]string{
			"event":   event,
			"device":  deviceCode,
			"outcome": outcome,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}
