package kafka

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"
)

// StartPolicy selects where a consumer group starts when it has no committed offset.
type StartPolicy string

const (
	// StartEarliest replays the retained backlog on first start.
	StartEarliest StartPolicy = "earliest"
	// StartLatest only sees messages produced after the group first joins.
	StartLatest StartPolicy = "latest"
)

// Offset maps the policy onto the kafka-go start offset.
func (p StartPolicy) Offset() int64 {
	if p == StartLatest {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

// ParseStartPolicy parses "earliest" or "latest" (case-insensitive).
func ParseStartPolicy(s string) (StartPolicy, error) {
	switch StartPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case StartEarliest:
		return StartEarliest, nil
	case StartLatest:
		return StartLatest, nil
	default:
		return "", fmt.Errorf("invalid start offset %q: must be earliest or latest", s)
	}
}

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Returns a slice of broker addresses.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	brokerList := strings.Split(brokers, ",")
	result := brokerList[:0]
	for _, b := range brokerList {
		if b = strings.TrimSpace(b); b != "" {
			result = append(result, b)
		}
	}
	return result
}

// ValidateConsumerParams validates common consumer parameters.
// Returns an error if any parameter is invalid.
func ValidateConsumerParams(brokers string, topics []string, groupID string) error {
	if len(ParseBrokers(brokers)) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if len(topics) == 0 {
		return fmt.Errorf("topic cannot be empty")
	}
	for _, topic := range topics {
		if topic == "" {
			return fmt.Errorf("topic cannot be empty")
		}
	}
	if groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}

// ValidateProducerParams validates common producer parameters.
// Returns an error if any parameter is invalid.
func ValidateProducerParams(brokers, topic string) error {
	if len(ParseBrokers(brokers)) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	return nil
}

// NewReaderConfig creates the platform's Kafka reader configuration for at-least-once delivery.
// A single topic is set directly; several topics are joined through GroupTopics so one
// group member receives all of them.
func NewReaderConfig(brokers []string, topics []string, groupID string, start StartPolicy) kafka.ReaderConfig {
	cfg := kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		MinBytes:       1,    // Return immediately when any data is available
		MaxBytes:       10e6, // 10MB
		MaxWait:        MaxPollWait,
		CommitInterval: CommitInterval,
		StartOffset:    start.Offset(),
	}
	if len(topics) == 1 {
		cfg.Topic = topics[0]
	} else {
		cfg.GroupTopics = topics
	}
	return cfg
}

// LogReaderConfig logs the reader configuration values.
func LogReaderConfig(cfg kafka.ReaderConfig) {
	slog.Info("Kafka consumer configured",
		"min_bytes", cfg.MinBytes,
		"max_bytes", cfg.MaxBytes,
		"max_wait", cfg.MaxWait,
		"commit_interval", cfg.CommitInterval,
		"start_offset", cfg.StartOffset,
	)
}
