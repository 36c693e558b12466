package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/logging"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("RELAY_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
relay:
  id: "test"
mqtt:
  topics:
    prefix: "irrigation/+"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("RELAY_CONFIG", configPath)
	t.Setenv("RELAY_TELEGRAM_TOKEN", "")

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail validation")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("RELAY_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("RELAY_CONFIG", "/custom/config.yaml")
	if got := getConfigPath(); got != "/custom/config.yaml" {
		t.Errorf("getConfigPath() = %q, want /custom/config.yaml", got)
	}
}

func testLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		Storage:  config.StorageConfig{Driver: config.StorageSQLite},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "relay.db"), WALMode: true, BusyTimeout: 5},
	}
	ctx := context.Background()

	store, err := openStore(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}

	reg := registry.New(store)
	if _, err := reg.Register(ctx, "ESP_12345678", "42"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := healthCheckStore(ctx, store); err != nil {
		t.Errorf("store health check: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Bindings survive a reopen.
	store, err = openStore(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	op, err := registry.New(store).LookupEndpoint(ctx, "ESP_12345678")
	if err != nil || op != "42" {
		t.Errorf("LookupEndpoint() = %q, %v; want 42", op, err)
	}
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageMemory}}
	store, err := openStore(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if _, ok := store.(*registry.MemoryStore); !ok {
		t.Errorf("store = %T, want *registry.MemoryStore", store)
	}
}

// recordingObserver counts calls across all observer interfaces.
type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recordingObserver) ObserveBusMessage(category, outcome string) { r.add("bus:" + category + ":" + outcome) }
func (r *recordingObserver) ObserveCommand(category, outcome string)    { r.add("cmd:" + category + ":" + outcome) }
func (r *recordingObserver) ObserveTimeout()                            { r.add("timeout") }
func (r *recordingObserver) ObserveRegistration(outcome string)         { r.add("reg:" + outcome) }

func TestObserverFanOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}

	relayObservers{a, b}.ObserveBusMessage("status-response", "delivered")
	relayObservers{a, b}.ObserveCommand("status-request", "published")
	relayObservers{a, b}.ObserveTimeout()
	conversationObservers{a, b}.ObserveRegistration("registered")

	for _, obs := range []*recordingObserver{a, b} {
		if len(obs.calls) != 4 {
			t.Errorf("calls = %v, want 4 entries", obs.calls)
		}
	}
}

func TestEventSink_NilClient(t *testing.T) {
	sink := newEventSink(nil)
	// Every method must be safe without InfluxDB.
	sink.ObserveDelivery("report", "ESP_12345678", "delivered")
	sink.ObserveBusMessage("status-response", "delivered")
	sink.ObserveCommand("status-request", "published")
	sink.ObserveTimeout()
	sink.ObserveRegistration("registered")
}
