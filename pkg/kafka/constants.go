// Package kafka provides shared Kafka utilities for all services.
package kafka

import "time"

const (
	// MaxPollWait bounds how long a fetch waits for new data before returning to the loop.
	MaxPollWait = 500 * time.Millisecond
	// CommitInterval is zero so CommitMessages is synchronous; offsets are committed
	// explicitly after each message is processed.
	CommitInterval = 0
	// WriteTimeout is the maximum time to wait for a Kafka write operation.
	WriteTimeout = 10 * time.Second
	// DefaultPartitions is used when the platform creates a missing topic.
	DefaultPartitions = 3
	// DefaultReplicationFactor is used when the platform creates a missing topic.
	DefaultReplicationFactor = 1
)

// Default topic names shared by producers and consumers.
const (
	TopicTelemetry = "telemetry"
	TopicEmergency = "emergency"
	TopicAlerts    = "alerts"
)
