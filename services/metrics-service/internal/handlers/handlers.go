// Package handlers provides HTTP handlers for the metrics service API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/afikmenashe/fleet-platform/pkg/metrics"
	"github.com/afikmenashe/fleet-platform/services/metrics-service/internal/database"
)

// SystemMetricsSource produces database aggregates.
type SystemMetricsSource interface {
	GetSystemMetrics(ctx context.Context) (*database.SystemMetrics, error)
}

// ServiceMetricsReader reads the snapshots services publish to Redis.
type ServiceMetricsReader interface {
	GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db               SystemMetricsSource
	metricsReader    ServiceMetricsReader
	metricsCollector *metrics.Collector
}

// NewHandlers creates a new handlers instance. Any dependency may be nil.
func NewHandlers(db SystemMetricsSource, metricsReader ServiceMetricsReader, metricsCollector *metrics.Collector) *Handlers {
	return &Handlers{
		db:               db,
		metricsReader:    metricsReader,
		metricsCollector: metricsCollector,
	}
}

// GetMetricsCollector returns the metrics collector for middleware use.
func (h *Handlers) GetMetricsCollector() *metrics.Collector {
	return h.metricsCollector
}

// ServiceMetricsResponse wraps service metrics with known service list.
type ServiceMetricsResponse struct {
	Services      map[string]*metrics.ServiceMetrics `json:"services"`
	KnownServices []string                           `json:"known_services"`
}

// GetSystemMetrics returns aggregated system metrics from the database.
// GET /api/v1/metrics
func (h *Handlers) GetSystemMetrics(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "Database not available", http.StatusInternalServerError)
		return
	}

	dbMetrics, err := h.db.GetSystemMetrics(r.Context())
	if err != nil {
		slog.Error("Failed to get system metrics", "error", err)
		http.Error(w, "Failed to retrieve metrics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, dbMetrics)
}

// GetServiceMetrics returns metrics for one service (?service=) or all of them.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.metricsReader == nil {
		slog.Error("Metrics reader not configured")
		http.Error(w, "Metrics reader not available", http.StatusInternalServerError)
		return
	}

	if serviceName := r.URL.Query().Get("service"); serviceName != "" {
		serviceMetrics, err := h.metricsReader.GetServiceMetrics(ctx, serviceName)
		if err != nil {
			slog.Warn("Failed to get service metrics", "service", serviceName, "error", err)
			// A service that has not reported is offline, not an API error.
			serviceMetrics = offline(serviceName)
		}
		writeJSON(w, serviceMetrics)
		return
	}

	allMetrics, err := h.metricsReader.GetAllServiceMetrics(ctx)
	if err != nil {
		slog.Error("Failed to get all service metrics", "error", err)
		http.Error(w, "Failed to retrieve service metrics", http.StatusInternalServerError)
		return
	}

	for _, name := range metrics.ServiceNames {
		if _, exists := allMetrics[name]; !exists {
			allMetrics[name] = offline(name)
		}
	}

	writeJSON(w, ServiceMetricsResponse{
		Services:      allMetrics,
		KnownServices: metrics.ServiceNames,
	})
}

func offline(name string) *metrics.ServiceMetrics {
	return &metrics.ServiceMetrics{ServiceName: name, Status: "offline"}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
