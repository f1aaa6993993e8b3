// Package producer publishes simulated telemetry and emergencies straight to Kafka,
// bypassing the ingestion API.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
	"github.com/afikmenashe/fleet-platform/pkg/retry"
	"github.com/segmentio/kafka-go"
)

// EventPublisher defines the interface for publishing simulated events.
type EventPublisher interface {
	PublishTelemetry(ctx context.Context, t events.VehicleTelemetry) error
	PublishEmergency(ctx context.Context, e events.EmergencySignal) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes both topics through one writer; each message names its topic.
type Producer struct {
	writer         MessageWriter
	telemetryTopic string
	emergencyTopic string
	retryCfg       retry.Config
}

var _ EventPublisher = (*Producer)(nil)

// New creates a producer for the two topics, creating them when missing.
func New(brokers, telemetryTopic, emergencyTopic string) (*Producer, error) {
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

	// Topic is left empty on the writer so messages can target either topic.
	return NewWithWriter(kafkautil.NewDurableWriter(brokerList, ""), telemetryTopic, emergencyTopic), nil
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w MessageWriter, telemetryTopic, emergencyTopic string) *Producer {
	return &Producer{
		writer:         w,
		telemetryTopic: telemetryTopic,
		emergencyTopic: emergencyTopic,
		retryCfg:       retry.KafkaConfig(),
	}
}

// SetRetryConfig overrides the retry policy.
func (p *Producer) SetRetryConfig(cfg retry.Config) {
	p.retryCfg = cfg
}

// PublishTelemetry writes a reading keyed by vehicle id.
func (p *Producer) PublishTelemetry(ctx context.Context, t events.VehicleTelemetry) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry: %w", err)
	}
	return p.write(ctx, "publish_telemetry", kafka.Message{
		Topic: p.telemetryTopic,
		Key:   []byte(t.VehicleID),
		Value: payload,
		Time:  t.Timestamp,
	})
}

// PublishEmergency writes a signal with the priority and type headers consumers route on.
func (p *Producer) PublishEmergency(ctx context.Context, e events.EmergencySignal) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal emergency: %w", err)
	}
	return p.write(ctx, "publish_emergency", kafka.Message{
		Topic: p.emergencyTopic,
		Key:   []byte(e.VehicleID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: events.HeaderPriority, Value: []byte{events.PriorityHeaderHigh}},
			{Key: events.HeaderEmergencyType, Value: []byte(e.EmergencyType.String())},
		},
		Time: e.CreatedAt,
	})
}

func (p *Producer) write(ctx context.Context, op string, msg kafka.Message) error {
	err := retry.WithRetry(ctx, p.retryCfg, op, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to write message to %s: %w", msg.Topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer")
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}
