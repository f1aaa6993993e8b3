package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESProvider implements email sending via AWS SES.
type SESProvider struct {
	client *sesv2.Client
	region string
}

// NewSESProvider loads the default AWS credential chain for region.
// A provider whose config fails to load reports IsConfigured() == false.
func NewSESProvider(ctx context.Context, region string) *SESProvider {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Warn("Failed to load AWS config, SES provider will be unavailable", "error", err)
		return &SESProvider{region: region}
	}

	slog.Info("SES email provider initialized", "region", region)
	return &SESProvider{
		client: sesv2.NewFromConfig(cfg),
		region: region,
	}
}

func (p *SESProvider) Name() string { return "ses" }

func (p *SESProvider) IsConfigured() bool { return p.client != nil }

// Send sends an email via AWS SES.
func (p *SESProvider) Send(ctx context.Context, req *EmailRequest) error {
	if p.client == nil {
		return fmt.Errorf("SES client not initialized")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	var body types.Body
	if req.HTML != "" {
		body.Html = &types.Content{Data: aws.String(req.HTML)}
	}
	if req.Body != "" {
		body.Text = &types.Content{Data: aws.String(req.Body)}
	}

	result, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(req.From),
		Destination: &types.Destination{
			ToAddresses: req.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(req.Subject)},
				Body:    &body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES send failed: %w", err)
	}

	slog.Info("Email sent via SES",
		"message_id", aws.ToString(result.MessageId),
		"to", req.To,
		"subject", req.Subject,
	)
	return nil
}
