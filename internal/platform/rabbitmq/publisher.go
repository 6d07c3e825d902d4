// Package rabbitmq publishes domain events to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Envelope wraps every published event.
type Envelope struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Publisher sends JSON envelopes to a durable topic exchange.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewPublisher dials amqpURL and declares exchange as a durable topic exchange.
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish marshals data into an envelope routed by routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, data any) error {
	envelope := Envelope{
		ID:         uuid.NewString(),
		Event:      routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    envelope.ID,
		Timestamp:    envelope.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// ConnectOptional dials RabbitMQ and returns nil when it is not configured or
// unreachable, logging the fallback.
func ConnectOptional(amqpURL, exchange string, logger *slog.Logger) (*Publisher, func()) {
	if amqpURL == "" {
		logger.Warn("RABBITMQ_URL not set, domain events will not be published")
		return nil, func() {}
	}
	publisher, err := NewPublisher(amqpURL, exchange)
	if err != nil {
		logger.Warn("failed to connect to rabbitmq, domain events will not be published", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("rabbitmq publisher ready", slog.String("exchange", exchange))
	return publisher, publisher.Close
}
