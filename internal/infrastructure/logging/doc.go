// Package logging provides structured logging for the irrigation relay.
//
// It wraps log/slog so every component logs with the same handler, level
// filter and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("relay started", "scope", cfg.MQTT.Topics.Scope)
//	logger.Error("delivery failed", "operator", op, "error", err)
//
// # Security
//
// Never log the Telegram bot token, broker passwords or database DSNs.
// Operator identifiers and device codes are fine to log.
package logging
