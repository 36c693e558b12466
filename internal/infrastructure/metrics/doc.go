// Package metrics exposes relay counters to Prometheus.
//
// Collectors live on a private registry so tests can create independent
// instances. The HTTP server mounts Handler at /metrics.
package metrics
