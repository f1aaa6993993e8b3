// Package config provides configuration parsing and validation for the simulator.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the simulator.
type Config struct {
	KafkaBrokers   string
	TelemetryTopic string
	EmergencyTopic string
	Vehicles       int
	RPS            float64
	Duration       time.Duration
	BurstSize      int
	Seed           int64

	// Per-reading anomaly probabilities. At most one anomaly is injected per reading,
	// so the three must sum to no more than 1.
	SpeedingProb       float64
	CargoExcursionProb float64
	UnplannedStopProb  float64
	// EmergencyProb is rolled independently for every reading.
	EmergencyProb float64

	RedisAddr       string
	MetricsInterval time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.TelemetryTopic == "" {
		return fmt.Errorf("telemetry-topic cannot be empty")
	}
	if c.EmergencyTopic == "" {
		return fmt.Errorf("emergency-topic cannot be empty")
	}
	if c.Vehicles <= 0 {
		return fmt.Errorf("vehicles must be > 0")
	}
	if c.RPS <= 0 && c.BurstSize <= 0 {
		return fmt.Errorf("rps must be > 0 or burst must be > 0")
	}
	if c.BurstSize == 0 && c.Duration <= 0 {
		return fmt.Errorf("duration must be > 0 when not in burst mode")
	}

	for _, p := range []struct {
		name  string
		value float64
	}{
		{"speeding-prob", c.SpeedingProb},
		{"cargo-prob", c.CargoExcursionProb},
		{"stop-prob", c.UnplannedStopProb},
		{"emergency-prob", c.EmergencyProb},
	} {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", p.name, p.value)
		}
	}
	if sum := c.SpeedingProb + c.CargoExcursionProb + c.UnplannedStopProb; sum > 1 {
		return fmt.Errorf("anomaly probabilities must sum to at most 1, got %.2f", sum)
	}
	return nil
}
