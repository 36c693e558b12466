package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveDelivery("report", "ESP_12345678", "delivered")
	m.ObserveDelivery("report", "ESP_87654321", "delivered")
	m.ObserveDelivery("ack", "ESP_12345678", "no_recipient")
	m.ObserveBusMessage("status-response", "handled")
	m.ObserveCommand("status-request", "published")
	m.ObserveRegistration("registered")
	m.ObserveTimeout()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"report delivered", testutil.ToFloat64(m.deliveries.WithLabelValues("report", "delivered")), 2},
		{"ack no recipient", testutil.ToFloat64(m.deliveries.WithLabelValues("ack", "no_recipient")), 1},
		{"bus handled", testutil.ToFloat64(m.busMessages.WithLabelValues("status-response", "handled")), 1},
		{"command published", testutil.ToFloat64(m.commands.WithLabelValues("status-request", "published")), 1},
		{"registered", testutil.ToFloat64(m.registrations.WithLabelValues("registered")), 1},
		{"timeouts", testutil.ToFloat64(m.timeouts), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("counter = %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDelivery("report", "ESP_12345678", "delivery_failed")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	want := `relay_deliveries_total{kind="report",result="delivery_failed"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("exposition missing %q", want)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("exposition missing Go runtime collector")
	}
}

func TestNew_Independent(t *testing.T) {
	// Separate registries must not panic on duplicate registration.
	a, b := New(), New()
	a.ObserveTimeout()
	if testutil.ToFloat64(b.timeouts) != 0 {
		t.Error("instances share state")
	}
}
