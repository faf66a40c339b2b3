package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/lead-console-go/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one lead notification.
type HandlerFunc func(ctx context.Context, n *domain.LeadNotification) error

// Consumer drains the lead queue and hands each message to a handler.
type Consumer struct {
	ch     *amqp.Channel
	queue  string
	handle HandlerFunc
	logger *zap.Logger
}

func NewConsumer(ch *amqp.Channel, queue string, handle HandlerFunc, logger *zap.Logger) *Consumer {
	return &Consumer{ch: ch, queue: queue, handle: handle, logger: logger}
}

// Run consumes until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(8, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	c.logger.Info("queue: consumer started", zap.String("queue", c.queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("queue %s: delivery channel closed", c.queue)
			}
			Deliver(ctx, d, c.handle, c.logger)
		}
	}
}

// Deliver decodes d, runs handle and acknowledges. Malformed messages and
// handler failures are rejected without requeue so they land in the DLQ.
func Deliver(ctx context.Context, d amqp.Delivery, handle HandlerFunc, logger *zap.Logger) {
	var n domain.LeadNotification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		logger.Error("queue: malformed message", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, &n); err != nil {
		logger.Warn("queue: notification failed",
			zap.String("message_id", d.MessageId),
			zap.String("lead_id", n.LeadID),
			zap.Error(err),
		)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
