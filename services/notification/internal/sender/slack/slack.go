// Package slack delivers notifications to Slack Incoming Webhooks.
package slack

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

func isValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// maskURL hides the webhook secret in logs.
func maskURL(url string) string {
	if len(url) > 50 {
		return url[:30] + "..." + url[len(url)-10:]
	}
	return url
}

// Sender implements Slack notification sending via Incoming Webhooks.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a new Slack sender.
func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *Sender) Type() string {
	return database.ChannelSlack
}

// Send posts the notification to the Slack webhook URL in recipient.
func (s *Sender) Send(ctx context.Context, recipient string, n *database.Notification) error {
	if recipient == "" {
		return fmt.Errorf("slack webhook URL is required")
	}
	if !isValidURL(recipient) {
		return fmt.Errorf("invalid Slack webhook URL: %q (must be a valid HTTP/HTTPS URL)", recipient)
	}

	jsonData, err := json.Marshal(payload.BuildSlackPayload(n))
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack notification to %s: %w", maskURL(recipient), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Successfully sent Slack notification",
		"notification_id", n.NotificationID,
		"vehicle_id", n.VehicleID,
	)
	return nil
}
