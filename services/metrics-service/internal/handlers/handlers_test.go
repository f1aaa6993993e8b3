package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afikmenashe/fleet-platform/pkg/metrics"
	"github.com/afikmenashe/fleet-platform/services/metrics-service/internal/database"
)

type fakeSource struct {
	metrics *database.SystemMetrics
	err     error
}

func (f *fakeSource) GetSystemMetrics(context.Context) (*database.SystemMetrics, error) {
	return f.metrics, f.err
}

type fakeReader struct {
	services map[string]*metrics.ServiceMetrics
	err      error
}

func (f *fakeReader) GetServiceMetrics(_ context.Context, name string) (*metrics.ServiceMetrics, error) {
	if m, ok := f.services[name]; ok {
		return m, nil
	}
	return nil, metrics.ErrNoMetrics
}

func (f *fakeReader) GetAllServiceMetrics(context.Context) (map[string]*metrics.ServiceMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*metrics.ServiceMetrics, len(f.services))
	for k, v := range f.services {
		out[k] = v
	}
	return out, nil
}

func TestHandlers_GetSystemMetrics(t *testing.T) {
	tests := []struct {
		name           string
		source         SystemMetricsSource
		expectedStatus int
	}{
		{
			name:           "successful get",
			source:         &fakeSource{metrics: &database.SystemMetrics{TotalVehicles: 10, ActiveEmergencies: 2}},
			expectedStatus: http.StatusOK,
		},
		{name: "database error", source: &fakeSource{err: errors.New("connection reset")}, expectedStatus: http.StatusInternalServerError},
		{name: "no database", source: nil, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(tt.source, nil, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
			w := httptest.NewRecorder()

			h.GetSystemMetrics(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("GetSystemMetrics() status = %v, want %v", w.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK {
				var got database.SystemMetrics
				if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if got.TotalVehicles != 10 || got.ActiveEmergencies != 2 {
					t.Errorf("body = %+v", got)
				}
			}
		})
	}
}

func TestHandlers_GetServiceMetrics(t *testing.T) {
	reader := &fakeReader{services: map[string]*metrics.ServiceMetrics{
		"processing": {ServiceName: "processing", Status: "healthy", MessagesProcessed: 42},
	}}
	h := NewHandlers(nil, reader, nil)

	t.Run("all services include offline ones", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusOK)
		}
		var resp ServiceMetricsResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if len(resp.Services) != len(metrics.ServiceNames) {
			t.Errorf("services = %d, want %d", len(resp.Services), len(metrics.ServiceNames))
		}
		if resp.Services["processing"].MessagesProcessed != 42 {
			t.Errorf("processing = %+v", resp.Services["processing"])
		}
		if resp.Services["emergency"].Status != "offline" {
			t.Errorf("emergency status = %s, want offline", resp.Services["emergency"].Status)
		}
	})

	t.Run("single service", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics?service=processing", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		var got metrics.ServiceMetrics
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got.Status != "healthy" {
			t.Errorf("Status = %s, want healthy", got.Status)
		}
	})

	t.Run("unreported service is offline", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics?service=simulator", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusOK)
		}
		var got metrics.ServiceMetrics
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got.Status != "offline" {
			t.Errorf("Status = %s, want offline", got.Status)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		h := NewHandlers(nil, &fakeReader{err: errors.New("redis down")}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusInternalServerError)
		}
	})

	t.Run("no reader returns error", func(t *testing.T) {
		h := NewHandlers(nil, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusInternalServerError)
		}
	})
}
