// Package publisher hands checkout orders to the kitchen through Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/kitchen"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubmitter treats an order as accepted once the brokers acknowledge it.
// The order id is assigned here so staff can quote it before the kitchen
// consumer has stored the order.
type KafkaSubmitter struct {
	writer messageWriter
	newID  func() string
}

func NewKafkaSubmitter(topic string, brokers ...string) *KafkaSubmitter {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &KafkaSubmitter{writer: w, newID: uuid.NewString}
}

func (p *KafkaSubmitter) SubmitOrder(ctx context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error) {
	event := kitchen.OrderPlacedEvent{OrderID: p.newID(), Order: req}
	payload, err := json.Marshal(event)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(req.TableID), // keeps a table's orders in sequence
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(kitchen.EventTypeOrderPlaced)},
			{Key: "idempotency_key", Value: []byte(req.IdempotencyKey)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("publish order event: %w", err)
	}
	return domain.SubmissionResult{Accepted: true, OrderID: event.OrderID}, nil
}

func (p *KafkaSubmitter) Close() error {
	return p.writer.Close()
}
