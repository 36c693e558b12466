package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Metrics holds the relay's Prometheus collectors on a private registry.
// All methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	deliveries    *prometheus.CounterVec
	busMessages   *prometheus.CounterVec
	commands      *prometheus.CounterVec
	registrations *prometheus.CounterVec
	timeouts      prometheus.Counter
}

// New creates and registers all relay collectors plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Operator notifications by kind (report, ack, notice) and result.",
		}, []string{"kind", "result"}),
		busMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_messages_total",
			Help:      "Inbound bus messages by category and handling outcome.",
		}, []string{"category", "outcome"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Outbound device requests by category and publish outcome.",
		}, []string{"category", "outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_timeouts_total",
			Help:      "Device requests that received no response in time.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.deliveries,
		m.busMessages,
		m.commands,
		m.registrations,
		m.timeouts,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDelivery counts a notification outcome. The device code is not
// used as a label to keep cardinality bounded.
func (m *Metrics) ObserveDelivery(kind, _ string, result string) {
	m.deliveries.WithLabelValues(kind, result).Inc()
}

// ObserveBusMessage counts an inbound bus message.
func (m *Metrics) ObserveBusMessage(category, outcome string) {
	m.busMessages.WithLabelValues(category, outcome).Inc()
}

// ObserveCommand counts an outbound device request.
func (m *Metrics) ObserveCommand(category, outcome string) {
	m.commands.WithLabelValues(category, outcome).Inc()
}

// ObserveRegistration counts a registration attempt.
func (m *Metrics) ObserveRegistration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

// ObserveTimeout counts a request that was never answered.
func (m *Metrics) ObserveTimeout() {
	m.timeouts.Inc()
}
