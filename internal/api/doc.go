// Package api implements the HTTP surface of the irrigation relay.
//
// Routes:
//   - GET  /health  static liveness text
//   - GET  /metrics Prometheus exposition (when a metrics handler is wired)
//   - GET  /system  runtime and registry snapshot as JSON
//   - POST /notify  device sensor reports (only with relay.ingress "http")
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// # Notify responses
//
// Bodies and status codes on /notify are consumed by device firmware and are
// fixed: 200 {"success":true}, 400 {"error":"ESP32 not registered"},
// 400 {"error":"invalid payload"} and 500 {"error":"Failed to send message"}.
package api
