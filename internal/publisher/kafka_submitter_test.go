package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/kitchen"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func testRequest() domain.CheckoutRequest {
	return domain.CheckoutRequest{
		IdempotencyKey: "key-1",
		TableID:        "4",
		CustomerName:   "Guest",
		Items: []domain.OrderItem{
			{ProductID: "5", Name: "Tiramisu", UnitPrice: decimal.RequireFromString("18.90"), Quantity: 1},
		},
		Total:  decimal.RequireFromString("18.90"),
		Status: domain.OrderStatusPreparing,
	}
}

func TestSubmitOrder_PublishesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaSubmitter{writer: w, newID: func() string { return "order-1" }}

	res, err := p.SubmitOrder(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "order-1", res.OrderID)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "4", string(msg.Key))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event_type", Value: []byte(kitchen.EventTypeOrderPlaced)})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "idempotency_key", Value: []byte("key-1")})

	var event kitchen.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "order-1", event.OrderID)
	assert.Equal(t, "4", event.Order.TableID)
	assert.True(t, event.Order.Total.Equal(decimal.RequireFromString("18.90")))
}

func TestSubmitOrder_BrokerError(t *testing.T) {
	p := &KafkaSubmitter{writer: &fakeWriter{err: errors.New("leader not available")}, newID: func() string { return "order-1" }}

	res, err := p.SubmitOrder(context.Background(), testRequest())
	assert.ErrorContains(t, err, "publish order event")
	assert.False(t, res.Accepted)
}
