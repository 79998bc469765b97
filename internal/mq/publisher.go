// Package mq provides RabbitMQ publishing utilities.
package mq

// File: internal/mq/publisher.go
// Purpose: Publish shelfsim domain events to the shelfsim.events exchange.

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Routing keys of the events the API emits.
const (
	RunCreated        = "run.created"
	RunStatusChanged  = "run.status_changed"
	RunDeleted        = "run.deleted"
	JobsCreated       = "jobs.created"
	JobResultRecorded = "job.result_recorded"
	LayoutCreated     = "layout.created"
	LayoutUpdated     = "layout.updated"
)

// Publisher wraps an AMQP connection/channel for event publishing.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	now      func() time.Time
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange, now: time.Now}, nil
}

// Close closes the AMQP channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Publish emits a JSON event to the configured exchange.
func (p *Publisher) Publish(routingKey string, payload map[string]any) error {
	body, err := Envelope(routingKey, payload, p.now())
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}

// Envelope stamps payload with event_id, routing_key and ts_utc and encodes
// it. The caller's map is not modified.
func Envelope(routingKey string, payload map[string]any, now time.Time) ([]byte, error) {
	event := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		event[k] = v
	}
	event["event_id"] = uuid.NewString()
	event["routing_key"] = routingKey
	event["ts_utc"] = now.UTC().Format(time.RFC3339Nano)
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return body, nil
}

// Noop discards events. It is used when RabbitMQ is disabled.
type Noop struct{}

// Publish implements the publisher contract without side effects.
func (Noop) Publish(string, map[string]any) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
