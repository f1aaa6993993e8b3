// Package router wires the metrics service API routes.
package router

import (
	"net/http"

	"github.com/afikmenashe/fleet-platform/pkg/httpserver"
	"github.com/afikmenashe/fleet-platform/services/metrics-service/internal/handlers"
)

// NewRouter returns the read-only metrics API handler.
func NewRouter(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()
	// Database aggregates
	mux.HandleFunc("/api/v1/metrics", httpserver.Only(h.GetSystemMetrics, http.MethodGet))
	// Per-service snapshots from Redis
	mux.HandleFunc("/api/v1/services/metrics", httpserver.Only(h.GetServiceMetrics, http.MethodGet))
	mux.HandleFunc(httpserver.HealthPath, httpserver.Health)

	var mws []httpserver.Middleware
	if c := h.GetMetricsCollector(); c != nil {
		mws = append(mws, httpserver.Metrics(c))
	}
	mws = append(mws, httpserver.CORS(http.MethodGet))
	return httpserver.Chain(mux, mws...)
}

// NewServer creates the metrics service HTTP server.
func NewServer(port string, h *handlers.Handlers) *http.Server {
	return httpserver.New(port, NewRouter(h))
}
