package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-ussd-gateway/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "ussd"

const (
	jobsQueue     = "ussd.jobs"
	outcomesQueue = "ussd.outcomes"
)

// Publisher implements ports.JobPublisher and ports.OutcomePublisher using RabbitMQ.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher dials RabbitMQ, declares the exchange and queues, and binds them.
func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// PublishJob queues a USSD job for a worker.
func (p *Publisher) PublishJob(ctx context.Context, job domain.Job) error {
	return p.publish(ctx, jobsQueue, job.ID.String(), job)
}

// PublishOutcome fans out a finished execution.
func (p *Publisher) PublishOutcome(ctx context.Context, e domain.Execution) error {
	return p.publish(ctx, outcomesQueue, e.ID.String(), e)
}

func (p *Publisher) publish(ctx context.Context, routingKey, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	return p.channel.PublishWithContext(
		ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Body:         body,
		},
	)
}

// Close cleanly shuts down the channel and connection.
func (p *Publisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

// declare idempotently sets up the exchange, queues, and bindings. Each
// queue is bound under its own name.
func declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{jobsQueue, outcomesQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := ch.QueueBind(q, q, exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	return nil
}
