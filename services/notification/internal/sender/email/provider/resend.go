package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendProvider implements email sending via the Resend API.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider returns an unconfigured provider when apiKey is empty.
func NewResendProvider(apiKey string) *ResendProvider {
	if apiKey == "" {
		return &ResendProvider{}
	}
	slog.Info("Resend email provider initialized")
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) IsConfigured() bool { return p.client != nil }

// Send sends an email via the Resend API.
func (p *ResendProvider) Send(ctx context.Context, req *EmailRequest) error {
	if p.client == nil {
		return fmt.Errorf("resend client not initialized")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	params := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
	}
	if req.HTML != "" {
		params.Html = req.HTML
	} else {
		params.Text = req.Body
	}

	result, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("Email sent via Resend",
		"email_id", result.Id,
		"to", req.To,
		"subject", req.Subject,
	)
	return nil
}
