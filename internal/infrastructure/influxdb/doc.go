// Package influxdb provides an optional InfluxDB sink for relay events.
//
// Each delivery attempt and inbound bus message can be recorded as a point in
// the relay_events measurement, tagged by event kind, device code and
// outcome. This is operational visibility only; sensor telemetry itself is
// not stored.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without the sink
//	}
//	defer client.Close()
//
//	client.WriteRelayEvent("report", "ESP_12345678", "delivered")
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval; failures are reported through SetOnError.
package influxdb
