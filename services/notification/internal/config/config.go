// Package config provides configuration parsing and validation for the notification service.
package config

import (
	"fmt"
	"strings"
	"time"

	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
)

// EmailProviders accepted by -email-provider.
var EmailProviders = []string{"log", "smtp", "resend", "ses"}

// Config holds all configuration parameters for the notification service.
type Config struct {
	KafkaBrokers    string
	EmergencyTopic  string
	AlertsTopic     string
	ConsumerGroupID string
	StartOffset     string
	PostgresDSN     string
	RedisAddr       string
	MetricsInterval time.Duration

	// Emergency recipients
	AuthoritiesEmail  string
	RescueEmail       string
	DefaultOwnerPhone string

	// Alert forwarding; every alert goes to each configured destination.
	AlertSlackWebhook string
	AlertWebhookURL   string
	AlertEmails       string

	// Delivery
	EmailFrom     string
	EmailProvider string
	AWSRegion     string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	HTTPTimeout   time.Duration
	SMSLatency    time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.EmergencyTopic == "" {
		return fmt.Errorf("emergency-topic cannot be empty")
	}
	if c.AlertsTopic == "" {
		return fmt.Errorf("alerts-topic cannot be empty")
	}
	if c.EmergencyTopic == c.AlertsTopic {
		return fmt.Errorf("emergency-topic and alerts-topic must differ")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if _, err := kafkautil.ParseStartPolicy(c.StartOffset); err != nil {
		return fmt.Errorf("start-offset: %w", err)
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("metrics-interval must be > 0")
	}
	if c.EmailFrom == "" {
		return fmt.Errorf("email-from cannot be empty")
	}
	if !validProvider(c.EmailProvider) {
		return fmt.Errorf("email-provider must be one of %s, got %q", strings.Join(EmailProviders, ", "), c.EmailProvider)
	}
	if c.EmailProvider == "smtp" && c.SMTPHost == "" {
		return fmt.Errorf("smtp-host cannot be empty when email-provider is smtp")
	}
	if c.EmailProvider == "resend" && c.ResendAPIKey == "" {
		return fmt.Errorf("resend-api-key cannot be empty when email-provider is resend")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be > 0")
	}
	return nil
}

func validProvider(name string) bool {
	for _, p := range EmailProviders {
		if p == name {
			return true
		}
	}
	return false
}

// AlertEmailList returns the alert email recipients.
func (c *Config) AlertEmailList() []string {
	var out []string
	for _, part := range strings.Split(c.AlertEmails, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
