package provider

import (
	"context"
	"fmt"
	"log/slog"
)

// LogProvider only logs the email. It is always configured and is the last resort.
type LogProvider struct{}

func NewLogProvider() *LogProvider { return &LogProvider{} }

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) IsConfigured() bool { return true }

func (p *LogProvider) Send(_ context.Context, req *EmailRequest) error {
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	slog.Info("Email delivered to log",
		"from", req.From,
		"to", req.To,
		"subject", req.Subject,
		"body_bytes", len(req.Body)+len(req.HTML),
	)
	return nil
}
