// Package config provides configuration parsing and validation for the emergency service.
package config

import (
	"fmt"
	"time"

	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
)

// Responder kinds.
const (
	ResponderSimulated = "simulated"
	ResponderWebhook   = "webhook"
)

// Config holds all configuration parameters for the emergency service.
type Config struct {
	KafkaBrokers    string
	EmergencyTopic  string
	ConsumerGroupID string
	StartOffset     string
	PostgresDSN     string
	RedisAddr       string
	MetricsInterval time.Duration

	Responder       string
	WebhookURL      string
	DispatchTimeout time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.EmergencyTopic == "" {
		return fmt.Errorf("emergency-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if _, err := kafkautil.ParseStartPolicy(c.StartOffset); err != nil {
		return fmt.Errorf("start-offset: %w", err)
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("metrics-interval must be > 0")
	}
	switch c.Responder {
	case ResponderSimulated:
	case ResponderWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("webhook-url cannot be empty when responder is webhook")
		}
	default:
		return fmt.Errorf("responder must be %s or %s, got %q", ResponderSimulated, ResponderWebhook, c.Responder)
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("dispatch-timeout must be > 0")
	}
	return nil
}

// StoreEnabled reports whether emergencies are tracked in PostgreSQL.
func (c *Config) StoreEnabled() bool {
	return c.PostgresDSN != ""
}
