package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Consumer wraps a consumer-group reader with explicit commits.
// Messages are fetched one at a time and committed by the caller after processing,
// which gives at-least-once delivery.
type Consumer struct {
	reader  *kafka.Reader
	topics  []string
	groupID string
}

// NewConsumer creates a consumer for one or more topics under groupID.
func NewConsumer(brokers string, topics []string, groupID string, start StartPolicy) (*Consumer, error) {
	if err := ValidateConsumerParams(brokers, topics, groupID); err != nil {
		return nil, err
	}
	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topics", topics,
		"group_id", groupID,
		"start_offset", string(start),
	)

	cfg := NewReaderConfig(brokerList, topics, groupID, start)
	LogReaderConfig(cfg)

	return &Consumer{
		reader:  kafka.NewReader(cfg),
		topics:  topics,
		groupID: groupID,
	}, nil
}

// FetchMessage blocks until the next message is available or ctx is cancelled.
func (c *Consumer) FetchMessage(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch message from Kafka: %w", err)
	}
	return msg, nil
}

// CommitMessage commits the offset of msg for the consumer group.
func (c *Consumer) CommitMessage(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit offset %d on %s/%d: %w", msg.Offset, msg.Topic, msg.Partition, err)
	}
	return nil
}

// Close leaves the consumer group and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topics", c.topics, "group_id", c.groupID)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}

// HeaderValue returns the value of the first header named key, or nil.
func HeaderValue(msg kafka.Message, key string) []byte {
	for _, h := range msg.Headers {
		if h.Key == key {
			return h.Value
		}
	}
	return nil
}
