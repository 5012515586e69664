package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	Events        EventMetrics   `json:"events"`
	EventFeed     FeedMetrics    `json:"event_feed"`
	Devices       DeviceMetrics  `json:"devices"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// EventMetrics contains push-stream statistics.
type EventMetrics struct {
	Subscribers int `json:"subscribers"`
}

// FeedMetrics contains inbound vendor broker statistics.
type FeedMetrics struct {
	Connected bool `json:"connected"`
}

// DeviceMetrics contains per-family registry sizes.
type DeviceMetrics struct {
	Wemo  int `json:"wemo"`
	Govee int `json:"govee"`
}

// handleMetrics returns runtime and registry statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Events: EventMetrics{
			Subscribers: s.broadcaster.SubscriberCount(),
		},
		Devices: DeviceMetrics{
			Wemo:  s.wemo.Len(),
			Govee: s.govee.Len(),
		},
	}

	if s.mqtt != nil {
		metrics.EventFeed.Connected = s.mqtt.IsConnected()
	}

	writeJSON(w, http.StatusOK, metrics)
}
