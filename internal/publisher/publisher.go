package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
)

const DefaultTopic = "cart-events"

// batchTimeout bounds how long a synchronous publish waits for its batch
// to fill. kafka-go defaults to one second.
const batchTimeout = 10 * time.Millisecond

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher announces committed cart changes so other instances can
// drop their cached copy of the user's cart.
type KafkaPublisher struct {
	writer messageWriter
	origin string
	logger *zap.Logger
}

func NewKafkaPublisher(origin, topic string, logger *zap.Logger, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return newKafkaPublisher(newWriter(topic, brokers...), origin, logger)
}

func newWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func newKafkaPublisher(w messageWriter, origin string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, origin: origin, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.CartEvent) error {
	event.Origin = p.origin
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cart event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID), // per-user ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Action)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish cart event: %w", err)
	}
	p.logger.Debug("cart event published",
		zap.String("user_id", event.UserID),
		zap.String("action", string(event.Action)),
		zap.String("product_id", event.ProductID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.CartEvent) error { return nil }
func (Nop) Close() error { return nil }
