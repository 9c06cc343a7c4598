// Package queue publishes domain events to RabbitMQ. Publishing is best effort:
// callers log failures and never roll back a committed transaction because of them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingContractCreated   = "contract.created"
	RoutingContractCompleted = "contract.completed"
	RoutingContractDeleted   = "contract.deleted"
	RoutingOwnershipTransfer = "property.ownership_transferred"
)

// Event envelope written to the exchange
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// AMQPPublisher keeps one connection and channel open and publishes to a durable topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel open: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	logger.Info("RabbitMQ publisher ready", map[string]interface{}{
		"exchange": exchange,
	})
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(Event{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		logger.Error("RabbitMQ publish failed", err, map[string]interface{}{
			"routing_key": routingKey,
		})
		return err
	}

	logger.Debug("Event published", map[string]interface{}{
		"routing_key": routingKey,
	})
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher is used when RABBITMQ_URL is not set
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	logger.Debug("Event publishing disabled", map[string]interface{}{
		"routing_key": routingKey,
	})
	return nil
}

func (NoopPublisher) Close() error { return nil }

// RecordingPublisher keeps published events in memory. Tests use it to assert side effects.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Event
}

func (r *RecordingPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Type: routingKey, OccurredAt: time.Now(), Payload: payload})
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

// Types returns the routing keys recorded so far
func (r *RecordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
