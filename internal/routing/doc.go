// Package routing owns every bus topic name the relay publishes to or
// subscribes on.
//
// A Router is built once at startup from the mqtt.topics configuration and
// applies one of two scopes for the life of the process:
//
//   - device: {prefix}/{code}/{segment}, one topic set per registered device
//   - global: {prefix}/{segment}, the device code travels in the payload
//
// Topic hierarchy for the default prefix in device scope:
//
//	irrigation/ESP_12345678/status/request
//	irrigation/ESP_12345678/status/response
//	irrigation/ESP_12345678/irrigation/start/request
//	irrigation/ESP_12345678/irrigation/start/response
//	irrigation/ESP_12345678/irrigation/stop/request
//	irrigation/ESP_12345678/irrigation/stop/response
//
// Classify is the inverse of TopicFor and is used by the inbound dispatch
// loop. Anything it does not recognise is reported as ErrUnrecognized.
package routing
