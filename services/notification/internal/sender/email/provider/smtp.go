package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"
)

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPProvider sends through an SMTP relay via nikoksr/notify.
type SMTPProvider struct {
	cfg SMTPConfig
}

func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Name() string { return "smtp" }

func (p *SMTPProvider) IsConfigured() bool { return p.cfg.Host != "" && p.cfg.Port > 0 }

// Send sends an email through the relay.
func (p *SMTPProvider) Send(ctx context.Context, req *EmailRequest) error {
	if !p.IsConfigured() {
		return fmt.Errorf("smtp relay not configured")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	// A fresh mail service per message: receivers accumulate across AddReceivers calls.
	svc := mail.New(req.From, fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port))
	if p.cfg.User != "" {
		svc.AuthenticateSMTP("", p.cfg.User, p.cfg.Password, p.cfg.Host)
	}
	body := req.Body
	if req.HTML != "" {
		svc.BodyFormat(mail.HTML)
		body = req.HTML
	} else {
		svc.BodyFormat(mail.PlainText)
	}
	svc.AddReceivers(req.To...)

	n := notify.New()
	n.UseServices(svc)
	if err := n.Send(ctx, req.Subject, body); err != nil {
		return fmt.Errorf("smtp send via %s:%d failed: %w", p.cfg.Host, p.cfg.Port, err)
	}

	slog.Info("Email sent via SMTP",
		"smtp_server", fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port),
		"to", req.To,
		"subject", req.Subject,
	)
	return nil
}
