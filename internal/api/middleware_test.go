package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/irrigation-relay/internal/infrastructure/config"
	"github.com/nerrad567/irrigation-relay/internal/infrastructure/logging"
	"github.com/nerrad567/irrigation-relay/internal/notify"
)

// lastLogLine decodes the final JSON log record written to buf.
func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return rec
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantLevel  string
		wantDevice string
	}{
		{"delivered report", validReport, "INFO", "ESP_12345678"},
		{"unregistered device", `{"esp_code":"ESP_99999999"}`, "WARN", "ESP_99999999"},
		{"no device code", `{}`, "WARN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, notify.Delivered)
			var buf bytes.Buffer
			srv.logger = logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", &buf)

			postNotify(t, srv.buildRouter(), tt.body)

			rec := lastLogLine(t, &buf)
			if rec["msg"] != "http request" || rec["level"] != tt.wantLevel {
				t.Errorf("log = %v, want %s http request", rec, tt.wantLevel)
			}
			if rec["ingress"] != config.IngressHTTP {
				t.Errorf("ingress = %v, want %s", rec["ingress"], config.IngressHTTP)
			}
			got, _ := rec["device"].(string)
			if got != tt.wantDevice {
				t.Errorf("device = %q, want %q", got, tt.wantDevice)
			}
		})
	}
}

func TestLoggingMiddleware_HealthAtDebug(t *testing.T) {
	srv, _ := testServer(t, notify.Delivered)
	var buf bytes.Buffer
	srv.logger = logging.NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "test", &buf)

	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(buf.String(), "http request") {
		t.Errorf("health probe logged above debug: %s", buf.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := testServer(t, notify.Delivered)
	h := srv.buildRouter()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if _, err := uuid.Parse(rec.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("generated request id %q: %v", rec.Header().Get("X-Request-ID"), err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want the client's", got)
	}
}
