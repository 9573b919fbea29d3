package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// QueueName is the durable queue notifications travel through.
const QueueName = "marudor.notifications"

// AMQPOutbox publishes messages to RabbitMQ instead of sending them. A
// consumer (see Consume) performs the actual delivery, so queued
// notifications survive a restart of the bot.
type AMQPOutbox struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPOutbox(url string) *AMQPOutbox {
	return &AMQPOutbox{url: url, queue: QueueName}
}

func (o *AMQPOutbox) channel() (*amqp.Channel, error) {
	if o.ch != nil && !o.ch.IsClosed() {
		return o.ch, nil
	}
	if o.conn == nil || o.conn.IsClosed() {
		conn, err := amqp.Dial(o.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: dial: %w", err)
		}
		o.conn = conn
	}
	ch, err := o.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if _, err := declareQueue(ch, o.queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	o.ch = ch
	return ch, nil
}

func (o *AMQPOutbox) Deliver(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal message: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	ch, err := o.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", o.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (o *AMQPOutbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs []error
	if o.ch != nil {
		errs = append(errs, o.ch.Close())
	}
	if o.conn != nil && !o.conn.IsClosed() {
		errs = append(errs, o.conn.Close())
	}
	return errors.Join(errs...)
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	return q, nil
}

// Consume delivers queued messages through out until ctx is cancelled. It
// reconnects with backoff when the broker goes away. Messages that cannot
// be decoded or delivered are dropped.
func Consume(ctx context.Context, url string, out Outbox, log zerolog.Logger) error {
	log = log.With().Str("component", "notify-consumer").Logger()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
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

		err = consumeLoop(ctx, conn, out, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("consume loop ended, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, out Outbox, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := declareQueue(ch, QueueName); err != nil {
		return err
	}

	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(ctx, d.Body, out); err != nil {
				log.Warn().Err(err).Msg("dropping notification")
			}
			_ = d.Ack(false)
		}
	}
}

func handleDelivery(ctx context.Context, body []byte, out Outbox) error {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if m.ChatID == 0 || m.Text == "" {
		return errors.New("incomplete message")
	}
	dctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	return out.Deliver(dctx, m)
}
