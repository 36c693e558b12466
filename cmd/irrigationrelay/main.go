// Irrigation Relay
//
// This is the main entry point for the irrigation relay. The relay connects
// ESP32 irrigation controllers on an MQTT bus with their operators on
// Telegram:
//   - operators register the device they own through a chat conversation
//   - sensor reports and command acknowledgements are forwarded to the owner
//   - chat commands become requests published to the owner's device
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/irrigation-relay/migrations"

	"github.com/nerrad567/irrigation-relay/internal/api"
	"github.com/nerrad567/irrigation-relay/internal/audit"
	"github.com/nerrad567/irrigation-relay/internal/chat/telegram"
	"github.com/nerrad567/irrigation-relay/internal/conversation"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/database"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/influxdb"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/logging"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/metrics"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/mqtt"
	"github.com/nerrad567/irrigation-relay/internal/notify"
	"github.com/nerrad567/irrigation-relay/internal/registry"
	"github.com/nerrad567/irrigation-relay/internal/relay"
	"github.com/nerrad567/irrigation-relay/internal/routing"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Deferred cleanups run in reverse order of construction.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting irrigation relay",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Identity registry
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing registry store")
		if closeErr := store.Close(); closeErr != nil {
			log.Error("error closing registry store", "error", closeErr)
		}
	}()

	reg := registry.New(store)
	reg.SetLogger(log)

	// Binding history lives next to the registry when it is in SQLite.
	var auditRepo audit.Repository
	if sq, ok := store.(*sqliteStore); ok {
		repo := audit.NewSQLiteRepository(sq.db.DB)
		reg.SetAuditor(audit.NewRecorder(repo, audit.SourceChat))
		auditRepo = repo
	} else {
		log.Info("audit trail disabled", "driver", cfg.Storage.Driver)
	}
	count, err := reg.Count(ctx)
	if err != nil {
		return fmt.Errorf("reading registry: %w", err)
	}
	log.Info("registry initialised", "driver", cfg.Storage.Driver, "devices", count)

	router, err := routing.New(cfg.MQTT.Topics)
	if err != nil {
		return fmt.Errorf("building topic router: %w", err)
	}

	prom := metrics.New()

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}
	sink := newEventSink(influxClient)

	// MQTT bus
	mqttClient, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, log)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"scope", router.Scope(),
		"prefix", router.Prefix(),
	)

	// Telegram
	bot, err := telegram.New(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("connecting to Telegram: %w", err)
	}
	bot.SetLogger(log)

	dispatcher := notify.New(reg, bot)
	dispatcher.SetLogger(log)
	dispatcher.SetObserver(notify.Observers{prom, sink})

	service := relay.New(mqttClient, router, dispatcher, reg, relay.Options{
		QoS:             mqttClient.QoS(),
		ResponseTimeout: cfg.GetResponseTimeout(),
		DedupTTL:        cfg.GetDedupTTL(),
	})
	service.SetLogger(log)
	service.SetObserver(relayObservers{prom, sink})
	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("starting relay service: %w", err)
	}
	defer func() {
		log.Info("stopping relay service")
		service.Stop()
	}()
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		if err := service.Resubscribe(ctx); err != nil {
			log.Warn("renewing device subscriptions failed", "error", err)
		}
	})

	machine := conversation.New(reg, service)
	machine.SetLogger(log)
	machine.SetObserver(conversationObservers{prom, sink})

	// HTTP
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Ingress:    cfg.Relay.Ingress,
		Logger:     log,
		Registry:   reg,
		Dispatcher: dispatcher,
		Metrics:    prom.Handler(),
		Bus:        mqttClient,
		Audit:      auditRepo,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, store, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, listening for operators")
	if err := bot.Listen(ctx, machine); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("telegram listener: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	return nil
}

func getConfigPath() string {
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStore returns the registry backend selected by storage.driver.
func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (registry.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory registry; bindings are lost on restart")
		return registry.NewMemoryStore(), nil

	case config.StoragePostgres:
		store, err := registry.NewPostgresStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		log.Info("PostgreSQL registry connected")
		return store, nil

	default:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "path", cfg.Database.Path)
		return &sqliteStore{SQLiteStore: registry.NewSQLiteStore(db.DB), db: db}, nil
	}
}

// sqliteStore closes the underlying database along with the store.
type sqliteStore struct {
	*registry.SQLiteStore
	db *database.DB
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheckStore pings stores that support it; the memory store does not.
func healthCheckStore(ctx context.Context, store registry.Store) error {
	if hc, ok := store.(healthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func healthCheck(ctx context.Context, store registry.Store, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := healthCheckStore(ctx, store); err != nil {
		return fmt.Errorf("registry store: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
