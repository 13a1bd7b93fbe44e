/**
 * @description
 * This package provides a simple producer for publishing messages to RabbitMQ.
 * It encapsulates the logic for connecting to RabbitMQ and publishing a message
 * to a specific exchange and routing key. Downstream consumers (notification
 * and reconciliation workers) pick these events up asynchronously.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// WithdrawalCompletedEvent is published after a withdrawal has been
// transferred and the member's wallet reconciled.
type WithdrawalCompletedEvent struct {
	UserID        string    `json:"user_id"`
	Amount        float64   `json:"amount"`
	Fee           float64   `json:"fee"`
	NetAmount     float64   `json:"net_amount"`
	PaymentMethod string    `json:"payment_method"`
	Destination   string    `json:"destination"`
	Reference     string    `json:"reference"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReconciliationPendingEvent is published when the provider transfer succeeded
// but the wallet debit failed, so an operator or worker must reconcile.
type ReconciliationPendingEvent struct {
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	PublishWithdrawalCompleted(ctx context.Context, event WithdrawalCompletedEvent) error
	PublishReconciliationPending(ctx context.Context, event ReconciliationPendingEvent) error
	Close()
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is unavailable at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) Publish(ctx context.Context, routingKey string, body interface{}) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"publish skipped\" routing_key=%s", routingKey)
	return nil
}

func (p *EventProducerFallback) PublishWithdrawalCompleted(ctx context.Context, event WithdrawalCompletedEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"withdrawal event publish skipped\" user_id=%s reference=%s", event.UserID, event.Reference)
	return nil
}

func (p *EventProducerFallback) PublishReconciliationPending(ctx context.Context, event ReconciliationPendingEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"reconciliation event publish skipped\" user_id=%s reference=%s", event.UserID, event.Reference)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer bound to an exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish serializes body as JSON and publishes it to the producer's exchange.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
}

// PublishWithdrawalCompleted publishes a wallet.withdrawal.completed event.
func (p *EventProducer) PublishWithdrawalCompleted(ctx context.Context, event WithdrawalCompletedEvent) error {
	return p.Publish(ctx, "wallet.withdrawal.completed", event)
}

// PublishReconciliationPending publishes a wallet.withdrawal.reconcile_pending event.
func (p *EventProducer) PublishReconciliationPending(ctx context.Context, event ReconciliationPendingEvent) error {
	return p.Publish(ctx, "wallet.withdrawal.reconcile_pending", event)
}

// Close tears down the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
