package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer reads the sale queues and appends one line per event to
// sales.log and incidents.log under Dir.
type Consumer struct {
	URL string
	Dir string
	Log logrus.FieldLogger
}

// NewConsumer returns a consumer writing to dir (default "logs").
func NewConsumer(url, dir string, log logrus.FieldLogger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	return &Consumer{URL: url, Dir: dir, Log: log.WithField("component", "sale-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff when the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.WithError(err).Warn("set QoS failed")
	}

	completed, err := c.subscribe(ch, SaleCompletedQueue)
	if err != nil {
		return err
	}
	incidents, err := c.subscribe(ch, SaleIncidentQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-completed:
			queue = SaleCompletedQueue
		case d, ok = <-incidents:
			queue = SaleIncidentQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.Handle(queue, d.Body); err != nil {
			c.Log.WithError(err).WithField("queue", queue).Error("handle message failed")
			_ = d.Nack(false, false) // no requeue; a bad payload would loop forever
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// Handle decodes one message from queue and appends it to the matching
// log file.
func (c *Consumer) Handle(queue string, body []byte) error {
	var (
		file string
		line string
	)
	switch queue {
	case SaleCompletedQueue:
		var ev SaleCompletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		file, line = "sales.log", FormatSaleCompleted(ev)
	case SaleIncidentQueue:
		var ev SaleIncidentEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		file, line = "incidents.log", FormatSaleIncident(ev)
		c.Log.WithFields(logrus.Fields{
			"incident_id": ev.IncidentID,
			"order_code":  ev.OrderCode,
			"kind":        ev.Kind,
		}).Warn("sale incident needs operator follow-up")
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	return appendLine(filepath.Join(c.Dir, file), line)
}

func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatSaleCompleted renders the sales.log line of an event.
func FormatSaleCompleted(ev SaleCompletedEvent) string {
	return fmt.Sprintf("[%s] Sale completed | order=%s | order_id=%d | staff=%s | movie=%q | cinema=%q | room=%q | starts=%s | seats=[%s] | total=%s | method=%s\n",
		ev.CompletedAt, ev.OrderCode, ev.OrderID, ev.StaffID, ev.MovieTitle,
		ev.CinemaName, ev.RoomName, ev.StartsAt, strings.Join(ev.SeatLabels, ","), ev.FinalAmount, ev.PaymentMethod)
}

// FormatSaleIncident renders the incidents.log line of an event.
func FormatSaleIncident(ev SaleIncidentEvent) string {
	return fmt.Sprintf("[%s] Sale incident %s | id=%s | order=%s | order_id=%d | trans=%s | staff=%s | session=%s | detail=%q\n",
		ev.OccurredAt, ev.Kind, ev.IncidentID, ev.OrderCode, ev.OrderID, ev.TransID, ev.StaffID, ev.SessionID, ev.Detail)
}
