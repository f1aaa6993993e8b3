// Package sender routes notifications to their delivery channel using the strategy pattern.
package sender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/retry"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/email"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/email/provider"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/slack"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/sms"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/strategy"
	"github.com/afikmenashe/fleet-platform/services/notification/internal/sender/webhook"
)

// ErrUnknownChannel is returned for a notification whose channel has no sender.
var ErrUnknownChannel = errors.New("unknown notification channel")

// Config selects and configures the delivery channels.
type Config struct {
	EmailFrom     string
	EmailProvider string // primary provider: ses, resend, smtp or log
	AWSRegion     string
	ResendAPIKey  string
	SMTP          provider.SMTPConfig
	HTTPTimeout   time.Duration
	SMSLatency    time.Duration
}

// Sender delivers notifications through the registered channels.
type Sender struct {
	registry *strategy.Registry
	retryCfg retry.Config
}

// New registers every channel. Email tries cfg.EmailProvider first, then the other
// configured providers, and always ends with the log provider.
func New(ctx context.Context, cfg Config) (*Sender, error) {
	providers := provider.NewRegistry()
	providers.Register(provider.NewLogProvider())
	providers.Register(provider.NewSMTPProvider(cfg.SMTP))
	providers.Register(provider.NewResendProvider(cfg.ResendAPIKey))
	if cfg.EmailProvider == "ses" {
		// Loading the AWS credential chain is only worth it when SES is asked for.
		providers.Register(provider.NewSESProvider(ctx, cfg.AWSRegion))
	}

	if err := providers.SetPrimary(cfg.EmailProvider); err != nil {
		return nil, fmt.Errorf("email provider: %w", err)
	}
	var fallback []string
	for _, name := range []string{"resend", "smtp"} {
		if name != cfg.EmailProvider {
			fallback = append(fallback, name)
		}
	}
	if err := providers.SetFallback(append(fallback, "log")...); err != nil {
		return nil, fmt.Errorf("email fallback: %w", err)
	}

	registry := strategy.NewRegistry()
	registry.Register(email.NewSender(providers, cfg.EmailFrom))
	registry.Register(sms.NewSender(cfg.SMSLatency))
	registry.Register(slack.NewSender(cfg.HTTPTimeout))
	registry.Register(webhook.NewSender(cfg.HTTPTimeout))

	return NewSenderWithRegistry(registry), nil
}

// NewSenderWithRegistry creates a sender over a custom registry.
func NewSenderWithRegistry(registry *strategy.Registry) *Sender {
	return &Sender{
		registry: registry,
		retryCfg: retry.DefaultConfig(),
	}
}

// SetRetryConfig overrides the per-delivery retry policy.
func (s *Sender) SetRetryConfig(cfg retry.Config) {
	s.retryCfg = cfg
}

// Channels lists the registered channels.
func (s *Sender) Channels() []string {
	return s.registry.List()
}

// Deliver sends n to n.Recipient over n.Channel, retrying transient failures.
func (s *Sender) Deliver(ctx context.Context, n *database.Notification) error {
	channel, ok := s.registry.Get(n.Channel)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, n.Channel)
	}

	operation := fmt.Sprintf("send_%s_%s", n.Channel, n.NotificationID)
	return retry.WithRetry(ctx, s.retryCfg, operation, func() error {
		return channel.Send(ctx, n.Recipient, n)
	})
}
