package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes a single digest event, typically by rendering and
// sending the email.
type Handler func(ctx context.Context, event DigestEmailEvent) error

// Consumer drains the digest queue and hands each event to a handler.
type Consumer struct {
	url       string
	queueName string
	handler   Handler
}

// NewConsumer creates a consumer for the given broker URL and queue.
func NewConsumer(url, queueName string, handler Handler) *Consumer {
	return &Consumer{url: url, queueName: queueName, handler: handler}
}

// Start runs the consume loop until ctx is cancelled. It reconnects
// with exponential backoff on broker failures and never panics; a
// failing message is rejected without requeue so one bad payload
// cannot wedge the queue.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("❌ mailqueue consumer: dial failed: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil {
			_ = conn.Close()
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Printf("❌ mailqueue consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("mailqueue consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	log.Printf("✅ mailqueue consumer listening on %s", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleDelivery(ctx, d.Body); err != nil {
				log.Printf("❌ mailqueue consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, body []byte) error {
	var event DigestEmailEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return c.handler(ctx, event)
}
