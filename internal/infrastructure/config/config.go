package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the irrigation relay.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Relay    RelayConfig    `yaml:"relay"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Postgres PostgresConfig `yaml:"postgres"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Telegram TelegramConfig `yaml:"telegram"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Ingress modes select which path carries device reports into the relay.
const (
	IngressBus  = "bus"
	IngressHTTP = "http"
)

// Storage drivers for the identity registry.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Topic scopes for the bus topic layout.
const (
	ScopeDevice = "device"
	ScopeGlobal = "global"
)

// RelayConfig contains relay-wide behaviour settings.
type RelayConfig struct {
	ID      string `yaml:"id"`
	Ingress string `yaml:"ingress"`

	// ResponseTimeout is how long (seconds) to wait for a device to answer a
	// request before telling the operator. 0 disables timeouts.
	ResponseTimeout int `yaml:"response_timeout"`

	// DedupTTL is how long (seconds) an inbound payload is remembered for
	// redelivery suppression.
	DedupTTL int `yaml:"dedup_ttl"`
}

// StorageConfig selects the registry store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
// MaxAttempts bounds the initial connection retries; 0 retries until the
// startup context is cancelled.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// MQTTTopicsConfig controls the bus topic layout.
type MQTTTopicsConfig struct {
	Prefix string `yaml:"prefix"`
	Scope  string `yaml:"scope"`

	// Status is the retained online/offline topic; empty means
	// "{prefix}/relay/status".
	Status string `yaml:"status"`
}

// TelegramConfig contains Telegram Bot API settings.
type TelegramConfig struct {
	Token       string        `yaml:"token"`
	PollTimeout int           `yaml:"poll_timeout"`
	Breaker     BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker around outbound chat sends.
type BreakerConfig struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures int `yaml:"failures"`
	// OpenFor is how long (seconds) the breaker stays open.
	OpenFor int `yaml:"open_for"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RELAY_SECTION_KEY
// For example: RELAY_DATABASE_PATH, RELAY_TELEGRAM_TOKEN
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadBus is Load for bus-only tools such as the device simulator: only the
// mqtt section is validated.
func LoadBus(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if errs := cfg.validateMQTT(); len(errs) > 0 {
		return nil, fmt.Errorf("validating config: configuration errors: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			ID:       "relay-001",
			Ingress:  IngressBus,
			DedupTTL: 600,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
		},
		Database: DatabaseConfig{
			Path:        "./data/relay.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "irrigation-relay",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  5,
			},
			Topics: MQTTTopicsConfig{
				Prefix: "irrigation",
				Scope:  ScopeDevice,
			},
		},
		Telegram: TelegramConfig{
			PollTimeout: 30,
			Breaker: BreakerConfig{
				Failures: 5,
				OpenFor:  30,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RELAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RELAY_INGRESS"); v != "" {
		cfg.Relay.Ingress = v
	}

	// Storage
	if v := os.Getenv("RELAY_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("RELAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RELAY_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	// MQTT
	if v := os.Getenv("RELAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RELAY_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("RELAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RELAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Telegram token is a secret and normally only comes from the environment.
	if v := os.Getenv("RELAY_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}

	// API
	if v := os.Getenv("RELAY_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("RELAY_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("RELAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Relay.ID == "" {
		errs = append(errs, "relay.id is required")
	}
	switch c.Relay.Ingress {
	case IngressBus, IngressHTTP:
	default:
		errs = append(errs, "relay.ingress must be \"bus\" or \"http\"")
	}
	if c.Relay.ResponseTimeout < 0 {
		errs = append(errs, "relay.response_timeout must not be negative")
	}
	if c.Relay.DedupTTL < 0 {
		errs = append(errs, "relay.dedup_ttl must not be negative")
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, "postgres.dsn is required for the postgres driver (set RELAY_POSTGRES_DSN)")
		}
	case StorageMemory:
	default:
		errs = append(errs, "storage.driver must be one of sqlite, postgres, memory")
	}

	errs = append(errs, c.validateMQTT()...)

	if c.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required (set RELAY_TELEGRAM_TOKEN environment variable)")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetResponseTimeout returns the device response timeout as a Duration.
// Zero means requests never time out.
func (c *Config) GetResponseTimeout() time.Duration {
	return time.Duration(c.Relay.ResponseTimeout) * time.Second
}

// GetDedupTTL returns the redelivery suppression window as a Duration.
func (c *Config) GetDedupTTL() time.Duration {
	return time.Duration(c.Relay.DedupTTL) * time.Second
}

func (c *Config) validateMQTT() []string {
	var errs []string
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topics.Prefix == "" || strings.ContainsAny(c.MQTT.Topics.Prefix, "+#") {
		errs = append(errs, "mqtt.topics.prefix must be non-empty and contain no wildcards")
	}
	switch c.MQTT.Topics.Scope {
	case ScopeDevice, ScopeGlobal:
	default:
		errs = append(errs, "mqtt.topics.scope must be \"device\" or \"global\"")
	}
	return errs
}
