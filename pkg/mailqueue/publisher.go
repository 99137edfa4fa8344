package mailqueue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher enqueues digest email events on a durable queue.
type Publisher struct {
	url       string
	queueName string
}

// NewPublisher creates a publisher for the given broker URL and queue.
func NewPublisher(url, queueName string) *Publisher {
	return &Publisher{url: url, queueName: queueName}
}

// EnqueueDigest publishes a digest event as a persistent JSON message.
// The queue is declared on every publish so either side may start
// first. Errors are logged and returned so the caller decides whether
// the failure aborts the run.
func (p *Publisher) EnqueueDigest(ctx context.Context, event DigestEmailEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("❌ mailqueue: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("❌ mailqueue: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // autoDelete
		false,       // exclusive
		false,       // noWait
		nil,         // args
	); err != nil {
		log.Printf("❌ mailqueue: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ mailqueue: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		pub,
	); err != nil {
		log.Printf("❌ mailqueue: publish failed: %v", err)
		return err
	}

	return nil
}
