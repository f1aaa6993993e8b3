// Package config provides configuration parsing and validation for the processing service.
package config

import (
	"fmt"
	"time"

	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
)

// Config holds all configuration parameters for the processing service.
type Config struct {
	KafkaBrokers    string
	TelemetryTopic  string
	AlertsTopic     string
	ConsumerGroupID string
	StartOffset     string
	RedisAddr       string
	MetricsInterval time.Duration

	// Live vehicle state in Redis.
	VehicleStateEnabled bool

	// Telemetry history in InfluxDB; disabled when InfluxURL is empty.
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.TelemetryTopic == "" {
		return fmt.Errorf("telemetry-topic cannot be empty")
	}
	if c.AlertsTopic == "" {
		return fmt.Errorf("alerts-topic cannot be empty")
	}
	if c.TelemetryTopic == c.AlertsTopic {
		return fmt.Errorf("telemetry-topic and alerts-topic must differ")
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
	if c.HistoryEnabled() {
		if c.InfluxOrg == "" {
			return fmt.Errorf("influx-org cannot be empty when influx-url is set")
		}
		if c.InfluxBucket == "" {
			return fmt.Errorf("influx-bucket cannot be empty when influx-url is set")
		}
	}
	return nil
}

// HistoryEnabled reports whether readings are written to InfluxDB.
func (c *Config) HistoryEnabled() bool {
	return c.InfluxURL != ""
}
