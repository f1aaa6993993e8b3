// Package email delivers notifications by email through a provider registry.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/email/provider"
)

// Mailer is the provider registry seen by Sender.
type Mailer interface {
	Send(ctx context.Context, req *provider.EmailRequest) error
}

// Sender implements the email channel.
type Sender struct {
	mailer Mailer
	from   string
}

// NewSender sends as from through mailer.
func NewSender(mailer Mailer, from string) *Sender {
	return &Sender{mailer: mailer, from: from}
}

// Type returns the channel this sender handles.
func (s *Sender) Type() string {
	return database.ChannelEmail
}

// Send emails the notification. recipient is a comma-separated list of addresses.
func (s *Sender) Send(ctx context.Context, recipient string, n *database.Notification) error {
	if recipient == "" {
		return fmt.Errorf("email recipient is required")
	}

	recipients := parseRecipients(recipient)
	if len(recipients) == 0 {
		return fmt.Errorf("email recipient is required")
	}
	for _, r := range recipients {
		if !strings.Contains(r, "@") {
			return fmt.Errorf("invalid email address format: %q (missing @ symbol)", r)
		}
	}

	err := s.mailer.Send(ctx, &provider.EmailRequest{
		From:    s.from,
		To:      recipients,
		Subject: n.Subject,
		Body:    n.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Successfully sent email notification",
		"to", strings.Join(recipients, ", "),
		"subject", n.Subject,
		"notification_id", n.NotificationID,
		"vehicle_id", n.VehicleID,
	)
	return nil
}

// parseRecipients parses a comma-separated list of email addresses.
func parseRecipients(value string) []string {
	parts := strings.Split(value, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
