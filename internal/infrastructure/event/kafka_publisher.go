package event

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/ecomt/storefront/internal/domain/order"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/ecomt/storefront/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Producer is the subset of *kafka.Producer used by KafkaEventHandler
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// NewKafkaProducer creates a confluent producer from configuration
func NewKafkaProducer(cfg config.KafkaConfig) (*kafka.Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"client.id":          cfg.ClientID,
		"acks":               "all",
		"enable.idempotence": true,
		"retries":            5,
		"retry.backoff.ms":   500,
		"compression.type":   "snappy",
		"linger.ms":          10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return p, nil
}

// KafkaEventHandler forwards order events to a Kafka topic.
// Messages are keyed by aggregate id so events of one order stay ordered.
type KafkaEventHandler struct {
	producer       Producer
	topic          string
	logger         *zap.Logger
	deliverTimeout time.Duration
}

// NewKafkaEventHandler creates a handler publishing to topic
func NewKafkaEventHandler(producer Producer, topic string, logger *zap.Logger) *KafkaEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaEventHandler{
		producer:       producer,
		topic:          topic,
		logger:         logger,
		deliverTimeout: 10 * time.Second,
	}
}

// EventTypes returns the order lifecycle events
func (h *KafkaEventHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, order.EventTypeOrderStatusChanged}
}

// Handle produces the event and waits for the delivery report
func (h *KafkaEventHandler) Handle(ctx context.Context, event shared.DomainEvent) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "kafka.produce", trace.SpanKindProducer,
		attribute.String("messaging.destination.name", h.topic),
		attribute.String("event.type", event.EventType()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	value, err := EncodeEnvelope(event)
	if err != nil {
		return err
	}

	topic := h.topic
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.AggregateID().String()),
		Value:          value,
		Timestamp:      event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID().String())},
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "aggregate_type", Value: []byte(event.AggregateType())},
		},
	}

	delivery := make(chan kafka.Event, 1)
	if err := h.producer.Produce(msg, delivery); err != nil {
		return fmt.Errorf("failed to produce %s: %w", event.EventType(), err)
	}

	timer := time.NewTimer(h.deliverTimeout)
	defer timer.Stop()

	select {
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery of %s failed: %w", event.EventType(), m.TopicPartition.Error)
		}
		h.logger.Debug("Event delivered",
			zap.String("event_type", event.EventType()),
			zap.String("topic", topic),
			zap.Int32("partition", m.TopicPartition.Partition),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("delivery of %s timed out after %s", event.EventType(), h.deliverTimeout)
	}
}

// Close flushes pending messages and closes the producer
func (h *KafkaEventHandler) Close(timeout time.Duration) {
	if left := h.producer.Flush(int(timeout.Milliseconds())); left > 0 {
		h.logger.Warn("Kafka producer closed with undelivered messages", zap.Int("pending", left))
	}
	h.producer.Close()
}

// Ensure KafkaEventHandler implements EventHandler
var _ shared.EventHandler = (*KafkaEventHandler)(nil)
