// Package router wires the ingestion API routes.
package router

import (
	"net/http"

	"github.com/afikmenashe/fleet-platform/pkg/httpserver"
	"github.com/afikmenashe/fleet-platform/services/ingestion/internal/handlers"
)

// NewRouter returns the ingestion API handler. Request metrics are recorded when the
// handlers carry a collector.
func NewRouter(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry/vehicle", h.ReceiveTelemetry)
	mux.HandleFunc("/api/telemetry/emergency", h.ReceiveEmergency)
	mux.HandleFunc(httpserver.HealthPath, httpserver.Health)

	var mws []httpserver.Middleware
	if c := h.GetMetricsCollector(); c != nil {
		mws = append(mws, httpserver.Metrics(c))
	}
	mws = append(mws, httpserver.CORS(http.MethodGet, http.MethodPost))
	return httpserver.Chain(mux, mws...)
}

// NewServer creates the ingestion HTTP server.
func NewServer(port string, h *handlers.Handlers) *http.Server {
	return httpserver.New(port, NewRouter(h))
}
