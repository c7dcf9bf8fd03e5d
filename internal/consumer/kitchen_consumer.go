// Package consumer feeds orders published on Kafka into the kitchen.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/kitchen"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// errMalformed marks messages that can never be accepted. They are
// committed and dropped instead of retried.
var errMalformed = errors.New("malformed message")

type orderAcceptor interface {
	Accept(ctx context.Context, orderID string, req domain.CheckoutRequest) (domain.SubmissionResult, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KitchenConsumer commits an offset only once its order is stored or the
// message is known to be malformed. Storage failures are retried with
// exponential backoff until they succeed or the consumer stops.
type KitchenConsumer struct {
	kitchen    orderAcceptor
	reader     messageReader
	log        *zap.Logger
	newBackOff func() backoff.BackOff
}

func NewKitchenConsumer(k orderAcceptor, topic, groupID string, log *zap.Logger, brokers ...string) *KitchenConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &KitchenConsumer{kitchen: k, reader: reader, log: logger.OrNop(log), newBackOff: acceptBackOff}
}

func acceptBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Run consumes until ctx is cancelled. A message still being retried at
// that point stays uncommitted and is redelivered to the group.
func (c *KitchenConsumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("kafka reader closed: %w", err)
			}
			c.log.Warn("kitchen_message_read_failed", zap.Error(err))
			continue
		}

		if err := c.process(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("kitchen_message_dropped",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("kitchen_commit_failed",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}

// process retries handle until it succeeds, fails permanently or ctx ends.
func (c *KitchenConsumer) process(ctx context.Context, m kafka.Message) error {
	newBackOff := c.newBackOff
	if newBackOff == nil {
		newBackOff = acceptBackOff
	}

	op := func() error {
		err := c.handle(ctx, m)
		if errors.Is(err, errMalformed) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn("kitchen_accept_retry",
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}
	return backoff.RetryNotify(op, backoff.WithContext(newBackOff(), ctx), notify)
}

func (c *KitchenConsumer) handle(ctx context.Context, m kafka.Message) error {
	if et := header(m, "event_type"); et != "" && et != kitchen.EventTypeOrderPlaced {
		c.log.Debug("kitchen_message_skipped", zap.String("event_type", et))
		return nil
	}

	var event kitchen.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("%w: parse order event: %w", errMalformed, err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("%w: order event without order id", errMalformed)
	}

	res, err := c.kitchen.Accept(ctx, event.OrderID, event.Order)
	if err != nil {
		return fmt.Errorf("accept order %s: %w", event.OrderID, err)
	}
	if !res.Accepted {
		c.log.Warn("kitchen_order_rejected", zap.String("order_id", event.OrderID), zap.String("reason", res.Reason))
	}
	return nil
}

func (c *KitchenConsumer) Close() error {
	return c.reader.Close()
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
