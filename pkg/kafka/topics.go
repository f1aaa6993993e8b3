package kafka

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// EnsureTopics creates any of the given topics that do not exist yet.
// This is a best-effort operation: failures are logged and never prevent startup,
// the topics may have been provisioned by the broker or an operator.
func EnsureTopics(broker string, topics ...string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not connect to Kafka to check/create topics",
			"broker", broker,
			"topics", topics,
			"error", err,
		)
		return
	}
	defer conn.Close()

	// CreateTopics must go to the controller, which is not necessarily the broker we dialed.
	controller, err := conn.Controller()
	if err != nil {
		slog.Warn("Could not look up Kafka controller", "broker", broker, "error", err)
		return
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		slog.Warn("Could not connect to Kafka controller", "controller", controller.Host, "error", err)
		return
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		partitions, err := conn.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			slog.Debug("Topic already exists", "topic", topic, "partitions", len(partitions))
			continue
		}

		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     DefaultPartitions,
			ReplicationFactor: DefaultReplicationFactor,
		})
		if err != nil {
			slog.Warn("Could not create topic (may need to be created manually)",
				"topic", topic,
				"error", err,
				"tip", createTopicTip(topic),
			)
			continue
		}

		slog.Info("Created topic",
			"topic", topic,
			"partitions", DefaultPartitions,
			"replication_factor", DefaultReplicationFactor,
		)
	}
}

func createTopicTip(topic string) string {
	return fmt.Sprintf("Run: docker exec kafka kafka-topics --create --bootstrap-server localhost:9092 --topic %s --partitions %d --replication-factor %d",
		topic, DefaultPartitions, DefaultReplicationFactor)
}

// NewDurableWriter returns a synchronous, key-hashed writer that waits for the full
// in-sync replica set before a write is acknowledged.
func NewDurableWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		// Retries are handled by the caller so every attempt is visible in the logs.
		MaxAttempts: 1,
	}
}
