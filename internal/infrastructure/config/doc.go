// Package config handles loading and validating irrigation relay configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (RELAY_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The Telegram bot token, MQTT password, PostgreSQL DSN and InfluxDB token
//     should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Topics.Scope)
package config
