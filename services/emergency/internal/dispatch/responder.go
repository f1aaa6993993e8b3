package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/pkg/retry"
)

// Responder carries out one action for an emergency.
type Responder interface {
	Respond(ctx context.Context, action Action, e events.EmergencySignal) error
}

// DefaultLatencies are the simulated responder round trips.
var DefaultLatencies = map[Action]time.Duration{
	ActionNotifyAuthorities:         100 * time.Millisecond,
	ActionNotifyOwner:               50 * time.Millisecond,
	ActionDispatchAssistance:        200 * time.Millisecond,
	ActionAlertSecurity:             150 * time.Millisecond,
	ActionDispatchEmergencyServices: 300 * time.Millisecond,
}

// SimulatedResponder stands in for the external integrations: it waits for the
// configured latency and logs the dispatch.
type SimulatedResponder struct {
	latencies map[Action]time.Duration
}

// NewSimulatedResponder uses latencies, or DefaultLatencies when nil.
// A zero-latency responder is useful in tests: pass an empty, non-nil map.
func NewSimulatedResponder(latencies map[Action]time.Duration) *SimulatedResponder {
	if latencies == nil {
		latencies = DefaultLatencies
	}
	return &SimulatedResponder{latencies: latencies}
}

func (s *SimulatedResponder) Respond(ctx context.Context, action Action, e events.EmergencySignal) error {
	if d := s.latencies[action]; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s interrupted: %w", action, ctx.Err())
		case <-timer.C:
		}
	}

	slog.Info("Emergency action dispatched",
		"action", action.String(),
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
		"emergency_type", e.EmergencyType.String(),
		"latitude", e.Latitude,
		"longitude", e.Longitude,
	)
	return nil
}

// WebhookPayload is the body POSTed by WebhookResponder.
type WebhookPayload struct {
	Action        string    `json:"action"`
	EmergencyID   string    `json:"emergencyId"`
	VehicleID     string    `json:"vehicleId"`
	EmergencyType string    `json:"emergencyType"`
	Description   string    `json:"description"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WebhookResponder POSTs every action to a dispatch center endpoint.
type WebhookResponder struct {
	url      string
	client   *http.Client
	retryCfg retry.Config
}

// NewWebhookResponder posts to url. Each attempt is bounded by timeout.
func NewWebhookResponder(url string, timeout time.Duration) *WebhookResponder {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = 2
	cfg.InitialBackoff = 50 * time.Millisecond
	cfg.MaxBackoff = 250 * time.Millisecond
	return &WebhookResponder{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		retryCfg: cfg,
	}
}

func (w *WebhookResponder) Respond(ctx context.Context, action Action, e events.EmergencySignal) error {
	body, err := json.Marshal(WebhookPayload{
		Action:        action.String(),
		EmergencyID:   e.EmergencyID,
		VehicleID:     e.VehicleID,
		EmergencyType: e.EmergencyType.String(),
		Description:   e.Description,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		CreatedAt:     e.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	return retry.WithRetry(ctx, w.retryCfg, "dispatch_"+action.String(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("invalid dispatch request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Emergency-Id", e.EmergencyID)

		resp, err := w.client.Do(req)
		if err != nil {
			return fmt.Errorf("dispatch request failed: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("dispatch endpoint returned status %d", resp.StatusCode)
		}
		return nil
	})
}
