// Device Simulator
//
// devicesim stands in for an ESP32 irrigation controller during manual
// end-to-end runs. It connects to the broker named in the relay config,
// answers status and irrigation requests for one device code and can
// publish unsolicited reports on an interval.
//
//	devicesim -code ESP_12345678 -interval 60s
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/logging"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	code       registry.DeviceCode
	interval   time.Duration
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("devicesim", flag.ContinueOnError)
	configPath := fs.String("config", envOr("RELAY_CONFIG", defaultConfigPath), "relay config file (broker and topic settings)")
	code := fs.String("code", "ESP_12345678", "device code to simulate")
	interval := fs.Duration("interval", 0, "publish an unsolicited report this often (0 disables)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	c, err := registry.ParseDeviceCode(*code)
	if err != nil {
		return options{}, err
	}
	if *interval < 0 {
		return options{}, fmt.Errorf("interval must not be negative")
	}
	return options{configPath: *configPath, code: c, interval: *interval}, nil
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadBus(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, "devicesim").With("device", string(opts.code))

	router, err := routing.New(cfg.MQTT.Topics)
	if err != nil {
		return fmt.Errorf("building topic router: %w", err)
	}

	// The simulator must not share the relay's client ID or status topic.
	cfg.MQTT.Broker.ClientID = "devicesim-" + string(opts.code)
	cfg.MQTT.Topics.Status = router.Prefix() + "/devicesim/" + string(opts.code) + "/status"
	client, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, log)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer client.Close()
	client.SetLogger(log)

	device := NewDevice(opts.code, router, client, client.QoS(), log, uint64(time.Now().UnixNano()))
	for _, topic := range router.RequestTopics(opts.code) {
		if err := client.Subscribe(topic, client.QoS(), device.HandleRequest); err != nil {
			return fmt.Errorf("subscribing %s: %w", topic, err)
		}
		log.Info("subscribed", "topic", topic)
	}

	if opts.interval == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := device.PublishReport(); err != nil {
				log.Warn("report publish failed", "error", err)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
