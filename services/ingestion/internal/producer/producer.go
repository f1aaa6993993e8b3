// Package producer publishes accepted telemetry and emergency signals to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
	"github.com/afikmenashe/fleet-platform/pkg/retry"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer owns one writer per topic. Both are keyed by vehicle id.
type Producer struct {
	telemetry      MessageWriter
	emergency      MessageWriter
	telemetryTopic string
	emergencyTopic string
	retryCfg       retry.Config
}

// NewProducer creates writers for the telemetry and emergency topics.
// Every write waits for the full in-sync replica set.
func NewProducer(brokers, telemetryTopic, emergencyTopic string) (*Producer, error) {
	for _, topic := range []string{telemetryTopic, emergencyTopic} {
		if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
			return nil, err
		}
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"telemetry_topic", telemetryTopic,
		"emergency_topic", emergencyTopic,
	)
	kafkautil.EnsureTopics(brokerList[0], telemetryTopic, emergencyTopic)

	slog.Info("Kafka producer configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireAll",
		"async", false,
		"partition_key", "vehicle_id (hashed)",
	)

	return NewWithWriters(
		kafkautil.NewDurableWriter(brokerList, telemetryTopic), telemetryTopic,
		kafkautil.NewDurableWriter(brokerList, emergencyTopic), emergencyTopic,
	), nil
}

// NewWithWriters wraps existing writers.
func NewWithWriters(telemetry MessageWriter, telemetryTopic string, emergency MessageWriter, emergencyTopic string) *Producer {
	return &Producer{
		telemetry:      telemetry,
		emergency:      emergency,
		telemetryTopic: telemetryTopic,
		emergencyTopic: emergencyTopic,
		retryCfg:       retry.KafkaConfig(),
	}
}

// SetRetryConfig overrides the retry policy.
func (p *Producer) SetRetryConfig(cfg retry.Config) {
	p.retryCfg = cfg
}

// PublishTelemetry writes a reading to the telemetry topic.
func (p *Producer) PublishTelemetry(ctx context.Context, t events.VehicleTelemetry) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(t.VehicleID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "telemetry_id", Value: []byte(t.TelemetryID)},
			{Key: "vehicle_type", Value: []byte(strconv.Itoa(int(t.VehicleType)))},
		},
		Time: t.Timestamp,
	}
	if err := p.write(ctx, p.telemetry, "publish_telemetry", msg); err != nil {
		slog.Error("Failed to publish telemetry",
			"telemetry_id", t.TelemetryID,
			"vehicle_id", t.VehicleID,
			"topic", p.telemetryTopic,
			"error", err,
		)
		return fmt.Errorf("failed to write telemetry to Kafka: %w", err)
	}
	return nil
}

// PublishEmergency writes a signal to the emergency topic with its priority and type headers.
func (p *Producer) PublishEmergency(ctx context.Context, e events.EmergencySignal) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal emergency: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.VehicleID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: events.HeaderPriority, Value: []byte{events.PriorityHeaderHigh}},
			{Key: events.HeaderEmergencyType, Value: []byte(e.EmergencyType.String())},
		},
		Time: e.CreatedAt,
	}
	if err := p.write(ctx, p.emergency, "publish_emergency", msg); err != nil {
		slog.Error("Failed to publish emergency",
			"emergency_id", e.EmergencyID,
			"vehicle_id", e.VehicleID,
			"topic", p.emergencyTopic,
			"error", err,
		)
		return fmt.Errorf("failed to write emergency to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) write(ctx context.Context, w MessageWriter, op string, msg kafka.Message) error {
	return retry.WithRetry(ctx, p.retryCfg, op, func() error {
		return w.WriteMessages(ctx, msg)
	})
}

// Close flushes and closes both writers.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer")
	var firstErr error
	for _, w := range []MessageWriter{p.telemetry, p.emergency} {
		if err := w.Close(); err != nil {
			slog.Error("Error closing Kafka writer", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
