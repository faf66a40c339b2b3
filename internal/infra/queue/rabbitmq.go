// Package queue carries lead notifications over RabbitMQ so that the
// intake path never waits on a messaging gateway.
package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	DLXName      = "ex.leads.dlx"
	RoutingKey   = "k.lead.created"
)

// RabbitMQ owns one connection and one channel with the lead topology
// declared.
type RabbitMQ struct {
	Conn  *amqp.Connection
	Ch    *amqp.Channel
	Queue string
}

// Dial connects to url and declares the exchange, the queue and its
// dead-letter queue.
func Dial(url, queue string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := setupTopology(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare rabbitmq topology: %w", err)
	}
	return &RabbitMQ{Conn: conn, Ch: ch, Queue: queue}, nil
}

func setupTopology(ch *amqp.Channel, queue string) error {
	dlq := queue + ".dlq"
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(dlq, RoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKey,
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, args); err != nil {
		return err
	}
	return ch.QueueBind(queue, RoutingKey, ExchangeName, false, nil)
}

// Close closes the channel and then the connection.
func (r *RabbitMQ) Close() error {
	if err := r.Ch.Close(); err != nil && err != amqp.ErrClosed {
		r.Conn.Close()
		return err
	}
	return r.Conn.Close()
}
