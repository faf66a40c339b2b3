package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/queue"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}
func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestPublisher_PublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := queue.NewPublisher(ch)

	require.NoError(t, p.Publish(context.Background(), &domain.LeadNotification{LeadID: "l1", LeadName: "Budi"}))

	assert.Equal(t, queue.ExchangeName, ch.exchange)
	assert.Equal(t, queue.RoutingKey, ch.key)
	assert.Equal(t, uint8(amqp.Persistent), ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.NotEmpty(t, ch.msg.MessageId)

	var got domain.LeadNotification
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "Budi", got.LeadName)
}

func TestPublisher_WrapsBrokerError(t *testing.T) {
	p := queue.NewPublisher(&fakeChannel{err: errors.New("channel closed")})

	err := p.Publish(context.Background(), &domain.LeadNotification{LeadID: "l1"})
	var ext *domain.ErrExternalService
	assert.ErrorAs(t, err, &ext)
}

func TestDeliver(t *testing.T) {
	body, _ := json.Marshal(domain.LeadNotification{LeadID: "l1"})

	t.Run("acks handled message", func(t *testing.T) {
		ack := &fakeAck{}
		var seen string
		queue.Deliver(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, func(_ context.Context, n *domain.LeadNotification) error {
			seen = n.LeadID
			return nil
		}, zap.NewNop())
		assert.True(t, ack.acked)
		assert.Equal(t, "l1", seen)
	})

	t.Run("dead-letters handler failure", func(t *testing.T) {
		ack := &fakeAck{}
		queue.Deliver(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, func(context.Context, *domain.LeadNotification) error {
			return errors.New("gateway down")
		}, zap.NewNop())
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("dead-letters malformed body", func(t *testing.T) {
		ack := &fakeAck{}
		called := false
		queue.Deliver(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")}, func(context.Context, *domain.LeadNotification) error {
			called = true
			return nil
		}, zap.NewNop())
		assert.True(t, ack.nacked)
		assert.False(t, called)
	})
}
