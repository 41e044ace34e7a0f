// internal/notifier/kafka.go
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes wallet events to a Kafka topic, keyed by user so
// a user's events stay ordered within a partition.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaNotifier creates a producer for the given brokers and topic.
func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Compression:  kafka.Snappy,
		BatchTimeout: 10 * time.Millisecond,
	}

	logger.Info("Kafka notifier initialized", "topic", topic)

	return &KafkaNotifier{
		writer: writer,
		logger: logger,
	}
}

// Publish sends an event to the topic.
func (n *KafkaNotifier) Publish(ctx context.Context, event TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Time:  time.Now(),
	}

	if err := n.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Event, err)
	}

	n.logger.Debug("Published wallet event", "event", event.Event, "user_id", event.UserID, "transaction_id", event.TransactionID)
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	if n.writer != nil {
		n.logger.Info("Closing Kafka notifier")
		return n.writer.Close()
	}
	return nil
}
