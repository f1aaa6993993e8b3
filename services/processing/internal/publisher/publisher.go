// Package publisher publishes rule alerts to the alerts topic.
package publisher

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

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Recorder receives publish outcomes.
type Recorder interface {
	RecordPublished()
	IncrementCustom(name string)
}

type noopRecorder struct{}

func (noopRecorder) RecordPublished()       {}
func (noopRecorder) IncrementCustom(string) {}

// Publisher serializes alerts and writes them keyed by vehicle id.
type Publisher struct {
	writer   MessageWriter
	topic    string
	retryCfg retry.Config
	metrics  Recorder
}

// New creates a publisher on topic with full-ISR acknowledgement.
func New(brokers, topic string) (*Publisher, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}
	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing alert publisher",
		"brokers", brokerList,
		"topic", topic,
	)
	kafkautil.EnsureTopics(brokerList[0], topic)

	slog.Info("Alert publisher configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireAll",
		"async", false,
		"partition_key", "vehicle_id (hashed)",
	)

	return NewWithWriter(kafkautil.NewDurableWriter(brokerList, topic), topic), nil
}

// NewWithWriter wraps an existing writer. Used by tests and by New.
func NewWithWriter(w MessageWriter, topic string) *Publisher {
	return &Publisher{
		writer:   w,
		topic:    topic,
		retryCfg: retry.KafkaConfig(),
		metrics:  noopRecorder{},
	}
}

// SetRecorder installs a metrics recorder. A nil recorder is ignored.
func (p *Publisher) SetRecorder(r Recorder) {
	if r != nil {
		p.metrics = r
	}
}

// SetRetryConfig overrides the retry policy.
func (p *Publisher) SetRetryConfig(cfg retry.Config) {
	p.retryCfg = cfg
}

// PublishAlert writes alert to the alerts topic, retrying transient broker errors.
func (p *Publisher) PublishAlert(ctx context.Context, alert events.AlertMessage) error {
	header := alert.AlertHeader()

	payload, err := json.Marshal(alert)
	if err != nil {
		p.metrics.IncrementCustom("alerts_publish_failed")
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(header.VehicleID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(header.AlertID)},
			{Key: "rule_id", Value: []byte(header.RuleID)},
			{Key: "alert_type", Value: []byte(header.AlertType)},
		},
		Time: header.Timestamp,
	}

	err = retry.WithRetry(ctx, p.retryCfg, "publish_alert", func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.metrics.IncrementCustom("alerts_publish_failed")
		slog.Error("Failed to publish alert",
			"alert_id", header.AlertID,
			"rule_id", header.RuleID,
			"vehicle_id", header.VehicleID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write alert to Kafka: %w", err)
	}

	p.metrics.RecordPublished()
	slog.Debug("Published alert",
		"alert_id", header.AlertID,
		"alert_type", header.AlertType,
		"vehicle_id", header.VehicleID,
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	slog.Info("Closing alert publisher", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing alert publisher", "error", err)
		return err
	}
	return nil
}
