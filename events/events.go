// Package events publishes domain events to Kafka, one topic per event type.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	AppointmentCreated    = "appointment.created"
	AppointmentExpired    = "appointment.expired"
	ProviderRatingUpdated = "provider.rating.updated"
)

type Event struct {
	ID          string          `json:"eventId"`
	Type        string          `json:"eventType"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Payload     json.RawMessage `json:"payload"`
}

// New builds an event with a fresh id. A payload that fails to marshal is
// replaced by null; callers pass plain structs.
func New(eventType string, aggregateID uint, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: strconv.FormatUint(uint64(aggregateID), 10),
		OccurredAt:  time.Now().UTC(),
		Payload:     raw,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewKafkaPublisher(brokers []string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		log: log,
	}
}

// NewPublisher returns a Kafka publisher for a comma separated broker list,
// or Nop when the list is empty.
func NewPublisher(rawBrokers string, log *slog.Logger) Publisher {
	brokers := SplitBrokers(rawBrokers)
	if len(brokers) == 0 {
		log.Warn("event publishing disabled (no kafka brokers configured)")
		return Nop{}
	}
	return NewKafkaPublisher(brokers, log)
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	msg := Message(e, value)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	p.log.Debug("event published", "event_id", e.ID, "event_type", e.Type, "aggregate_id", e.AggregateID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message maps an event onto a Kafka message keyed by aggregate id.
func Message(e Event, value []byte) kafka.Message {
	return kafka.Message{
		Topic: e.Type,
		Key:   []byte(e.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.ID)},
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
