package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("queue")

// Channel is the publishing half of *amqp.Channel.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements port.NotificationPublisher.
type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Publish(ctx context.Context, n *domain.LeadNotification) error {
	ctx, span := tracer.Start(ctx, "Queue.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", n.LeadID))

	msg, err := NewPublishing(n)
	if err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, msg); err != nil {
		return &domain.ErrExternalService{Service: "rabbitmq", Err: err}
	}
	return nil
}

// NewPublishing encodes n as a persistent JSON message.
func NewPublishing(n *domain.LeadNotification) (amqp.Publishing, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode lead notification: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         "lead.created",
		Body:         body,
	}, nil
}
