// Package handlers provides HTTP handlers for the ingestion API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/pkg/metrics"
	"github.com/afikmenashe/fleet-platform/services/ingestion/internal/ingest"
)

// Ingester accepts readings and signals.
type Ingester interface {
	IngestTelemetry(ctx context.Context, t events.VehicleTelemetry) (events.VehicleTelemetry, error)
	IngestEmergency(ctx context.Context, e events.EmergencySignal) (events.EmergencySignal, error)
}

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	ingester         Ingester
	metricsCollector *metrics.Collector
}

// NewHandlers creates a new handlers instance. The collector may be nil.
func NewHandlers(ingester Ingester, metricsCollector *metrics.Collector) *Handlers {
	return &Handlers{
		ingester:         ingester,
		metricsCollector: metricsCollector,
	}
}

// GetMetricsCollector returns the metrics collector for middleware use.
func (h *Handlers) GetMetricsCollector() *metrics.Collector {
	return h.metricsCollector
}

// TelemetryAccepted is the 202 body for a stored reading.
type TelemetryAccepted struct {
	Message     string `json:"message"`
	TelemetryID string `json:"telemetryId"`
}

// EmergencyAccepted is the 202 body for a stored signal.
type EmergencyAccepted struct {
	Message     string    `json:"message"`
	EmergencyID string    `json:"emergencyId"`
	Priority    string    `json:"priority"`
	Timestamp   time.Time `json:"timestamp"`
}

// ErrorResponse is returned when an emergency could not be accepted.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ReceiveTelemetry accepts one vehicle reading.
// POST /api/telemetry/vehicle
func (h *Handlers) ReceiveTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req events.VehicleTelemetry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accepted, err := h.ingester.IngestTelemetry(r.Context(), req)
	if err != nil {
		if status, msg, ok := clientError(err, req.VehicleID); ok {
			http.Error(w, msg, status)
			return
		}
		slog.Error("Error processing telemetry", "vehicle_id", req.VehicleID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, TelemetryAccepted{
		Message:     "Telemetry received",
		TelemetryID: accepted.TelemetryID,
	})
}

// ReceiveEmergency accepts one emergency signal.
// POST /api/telemetry/emergency
func (h *Handlers) ReceiveEmergency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req events.EmergencySignal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accepted, err := h.ingester.IngestEmergency(r.Context(), req)
	if err != nil {
		if status, msg, ok := clientError(err, req.VehicleID); ok {
			http.Error(w, msg, status)
			return
		}
		slog.Error("Error processing emergency signal", "vehicle_id", req.VehicleID, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusAccepted, EmergencyAccepted{
		Message:     "Emergency signal received and processed",
		EmergencyID: accepted.EmergencyID,
		Priority:    accepted.Priority,
		Timestamp:   accepted.CreatedAt,
	})
}

// clientError maps rejections caused by the request itself to a 400.
func clientError(err error, vehicleID string) (int, string, bool) {
	switch {
	case errors.Is(err, ingest.ErrVehicleNotFound):
		return http.StatusBadRequest, "Vehicle " + vehicleID + " not found", true
	case errors.Is(err, ingest.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error(), true
	default:
		return 0, "", false
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
