package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemSnapshot is the /system response.
type SystemSnapshot struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Ingress       string         `json:"ingress"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Bus           BusMetrics     `json:"bus"`
	Registry      RegistryStats  `json:"registry"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// BusMetrics contains message bus connectivity.
type BusMetrics struct {
	Connected bool `json:"connected"`
}

// RegistryStats contains identity registry statistics.
type RegistryStats struct {
	Devices int    `json:"devices"`
	Error   string `json:"error,omitempty"`
}

// handleSystem returns a runtime and registry snapshot.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := SystemSnapshot{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Ingress:       s.ingress,
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.bus != nil {
		snapshot.Bus.Connected = s.bus.IsConnected()
	}

	count, err := s.registry.Count(r.Context())
	if err != nil {
		s.logger.Warn("registry count failed", "error", err)
		snapshot.Registry.Error = err.Error()
	}
	snapshot.Registry.Devices = count

	writeJSON(w, http.StatusOK, snapshot)
}
