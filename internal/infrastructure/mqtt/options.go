package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	defaultPublishTimeout = 5 * time.Second

	defaultDisconnectQuiesce = 1000 // milliseconds

	defaultKeepAlive = 60 * time.Second

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// StatusTopic returns the retained topic the relay uses to announce its own
// online/offline state, e.g. "irrigation/relay/status".
func StatusTopic(prefix string) string {
	return prefix + "/relay/status"
}

// statusTopic is the configured status topic or the relay default.
func statusTopic(cfg config.MQTTConfig) string {
	if cfg.Topics.Status != "" {
		return cfg.Topics.Status
	}
	return StatusTopic(cfg.Topics.Prefix)
}

func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// buildClientOptions maps relay config onto paho options: broker URL, client
// id, credentials, clean session, auto-reconnect bounds and TLS.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Subscriptions are restored by the client on reconnect, not by the broker.
	opts.SetCleanSession(true)

	// Initial connection retries are driven by ConnectWithRetry; paho only
	// handles reconnects after the first success.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// statusPayload is the body published on StatusTopic.
type statusPayload struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

func encodeStatus(p statusPayload) string {
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	b, _ := json.Marshal(p) //nolint:errcheck // plain string fields cannot fail
	return string(b)
}

// configureLWT registers a retained "offline" will so subscribers learn when
// the relay drops off the bus without a clean shutdown.
func configureLWT(opts *pahomqtt.ClientOptions, cfg config.MQTTConfig) {
	opts.SetWill(
		statusTopic(cfg),
		encodeStatus(statusPayload{Status: "offline", ClientID: cfg.Broker.ClientID, Reason: "unexpected_disconnect"}),
		1,
		true,
	)
}

func buildOnlinePayload(clientID string) string {
	return encodeStatus(statusPayload{Status: "online", ClientID: clientID})
}

func buildOfflinePayload(clientID string) string {
	return encodeStatus(statusPayload{Status: "offline", ClientID: clientID, Reason: "graceful_shutdown"})
}
