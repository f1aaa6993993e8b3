// Package webhook delivers notifications as JSON POSTs.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/payload"
)

// Sender implements webhook notification sending via HTTP POST.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a new webhook sender.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *Sender) Type() string {
	return database.ChannelWebhook
}

// Send posts the notification to the URL in recipient.
func (s *Sender) Send(ctx context.Context, recipient string, n *database.Notification) error {
	if recipient == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(recipient, "http://") && !strings.HasPrefix(recipient, "https://") {
		return fmt.Errorf("invalid webhook URL: %q (must be a valid HTTP/HTTPS URL)", recipient)
	}

	jsonData, err := json.Marshal(payload.BuildWebhookPayload(n))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-Id", n.NotificationID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Successfully sent webhook notification",
		"webhook_url", recipient,
		"notification_id", n.NotificationID,
		"vehicle_id", n.VehicleID,
	)
	return nil
}
