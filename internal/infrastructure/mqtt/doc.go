// Package mqtt provides the relay's connection to the device bus.
//
// This package manages:
//   - Connection to the broker, with exponential backoff on first connect
//     (ConnectWithRetry) and paho auto-reconnect afterwards
//   - Publishing with QoS acknowledgement and timeouts
//   - Subscriptions that survive reconnects
//   - A retained relay status topic with a last-will "offline" message
//
// Topic layout for device traffic is owned by the routing package; this
// package only moves bytes.
//
// # Usage
//
//	client, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("irrigation/ESP_12345678/status/response", 1,
//	    func(topic string, payload []byte) error {
//	        return handle(topic, payload)
//	    })
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) when the broker is not on a trusted network
//   - Device codes travel in topics and payloads in clear text without TLS
package mqtt
