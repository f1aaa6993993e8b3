// Package sms delivers notifications through a simulated SMS gateway.
package sms

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
)

// DefaultLatency is the simulated gateway round trip.
const DefaultLatency = 50 * time.Millisecond

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Sender is a simulated SMS gateway: it validates the number, waits for the
// gateway latency and logs the message.
type Sender struct {
	latency time.Duration
}

func NewSender(latency time.Duration) *Sender {
	return &Sender{latency: latency}
}

func (s *Sender) Type() string {
	return database.ChannelSMS
}

// Send texts the notification message to an E.164 number.
func (s *Sender) Send(ctx context.Context, recipient string, n *database.Notification) error {
	if !e164.MatchString(recipient) {
		return fmt.Errorf("invalid phone number %q: want E.164 format", recipient)
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("sms to %s interrupted: %w", recipient, ctx.Err())
		case <-timer.C:
		}
	}

	slog.Info("SMS sent via simulated gateway",
		"to", recipient,
		"message", n.Message,
		"notification_id", n.NotificationID,
		"vehicle_id", n.VehicleID,
	)
	return nil
}
