// Package config provides configuration parsing and validation for the ingestion service.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all configuration parameters for the ingestion service.
type Config struct {
	HTTPPort        string
	KafkaBrokers    string
	TelemetryTopic  string
	EmergencyTopic  string
	PostgresDSN     string
	RedisAddr       string
	MetricsInterval time.Duration

	// MQTTBrokerURL empty disables the MQTT bridge.
	MQTTBrokerURL  string
	MQTTClientID   string
	MQTTUsername   string
	MQTTPassword   string
	MQTTQoS        int
	HandlerTimeout time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.TelemetryTopic == "" {
		return fmt.Errorf("telemetry-topic cannot be empty")
	}
	if c.EmergencyTopic == "" {
		return fmt.Errorf("emergency-topic cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.MQTTEnabled() {
		if !strings.Contains(c.MQTTBrokerURL, "://") {
			return fmt.Errorf("mqtt-broker must be a URL such as tcp://localhost:1883")
		}
		if c.MQTTClientID == "" {
			return fmt.Errorf("mqtt-client-id cannot be empty")
		}
		if c.MQTTQoS < 0 || c.MQTTQoS > 2 {
			return fmt.Errorf("mqtt-qos must be 0, 1 or 2")
		}
	}
	return nil
}

// MQTTEnabled reports whether the MQTT bridge should run.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBrokerURL != ""
}
