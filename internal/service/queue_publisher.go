// Package service wires the sale sessions to the outside world: it
// publishes sale events to RabbitMQ and archives receipts and incidents.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// QueuePublisher publishes JSON events to durable RabbitMQ queues.  It
// dials per publish: sales are rare enough that holding a channel open is
// not worth the reconnect logic.
type QueuePublisher struct {
	url string
	log logrus.FieldLogger
}

// NewQueuePublisher returns a publisher for the broker at url.
func NewQueuePublisher(url string, log logrus.FieldLogger) *QueuePublisher {
	return &QueuePublisher{url: url, log: log.WithField("component", "publisher")}
}

// Publish marshals event and sends it persistently to queue, declaring the
// queue first.  Errors are logged and returned; callers decide whether
// they matter.
func (p *QueuePublisher) Publish(ctx context.Context, queue string, event any) error {
	log := p.log.WithField("queue", queue)
	body, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("marshal event failed")
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.WithError(err).Warn("dial failed")
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("channel open failed")
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("queue declare failed")
		return fmt.Errorf("declare %s: %w", queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.WithError(err).Warn("publish failed")
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}
