package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portal/pkg/slogx"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RegisteredRoutingKey is the routing key of registration events.
const RegisteredRoutingKey = "portal.user.registered"

// DefaultExchange is used when no exchange is configured.
const DefaultExchange = "portal.events"

// publisher is the part of *amqp.Channel the queue notifier uses.
type publisher interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
}

// Queue publishes events to a durable topic exchange with publisher
// confirms.
type Queue struct {
	exchange string
	ch       publisher
	closers  []func() error
}

var _ Notifier = (*Queue)(nil)

// DialQueue connects to url, declares exchange and enables confirm mode.
func DialQueue(url, exchange string) (*Queue, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: AMQP_URL is empty", ErrNotConfigured)
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: exchange declare failed: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: confirm mode failed: %w", err)
	}

	q := NewQueue(ch, exchange)
	q.closers = append(q.closers, ch.Close, conn.Close)
	return q, nil
}

// NewQueue publishes on an already prepared channel.
func NewQueue(ch publisher, exchange string) *Queue {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Queue{exchange: exchange, ch: ch}
}

func (q *Queue) NotifyRegistered(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	headers := amqp.Table{}
	if id := slogx.RequestIDFromContext(ctx); id != "" {
		headers["X-Request-ID"] = id
	}

	confirm, err := q.ch.PublishWithDeferredConfirmWithContext(ctx,
		q.exchange,
		RegisteredRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    ev.UserID,
			Type:         RegisteredRoutingKey,
			Headers:      headers,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}

	// Channels outside confirm mode return no confirmation.
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq: confirm wait failed: %w", err)
	}
	if !acked {
		return errors.New("rabbitmq: publish nacked by broker")
	}
	return nil
}

// Close releases the channel and connection opened by DialQueue.
func (q *Queue) Close() error {
	var errs []error
	for _, c := range q.closers {
		if err := c(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
