package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeSubscriptionUpdated = "subscription.updated"
	TypeMenuUpdated         = "menu.updated"
)

// Event is a domain event keyed by restaurant.
type Event struct {
	Type         string         `json:"type"`
	RestaurantID uint           `json:"restaurantId"`
	OccurredAt   time.Time      `json:"occurredAt"`
	Data         map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// Publish writes the event with the restaurant id as key, so events of one
// restaurant stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := Encode(evt)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}

// Encode builds the Kafka message for evt.
func Encode(evt Event) (kafka.Message, error) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(evt.RestaurantID), 10)),
		Value: payload,
	}, nil
}

const publishTimeout = 5 * time.Second

// PublishQuietly publishes evt and logs a failure instead of returning it.
func PublishQuietly(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, evt); err != nil {
		slog.Warn("event publish failed", "type", evt.Type, "restaurant_id", evt.RestaurantID, "error", err)
	}
}
