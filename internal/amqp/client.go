// Package amqp publishes store change events to RabbitMQ and consumes them
// in background workers.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/log"
)

const (
	publishTimeout = 5 * time.Second
	maxRedials     = 3
	maxBackoff     = 30 * time.Second
)

// publisher is the part of *amqp091.Channel used for publishing.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type Client struct {
	url      string
	exchange string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	pub     publisher

	// redial replaces pub after a connection failure.
	redial  func(ctx context.Context) (publisher, error)
	backoff func(attempt int) time.Duration
}

// NewClient connects and declares a durable topic exchange.
func NewClient(url, exchange string) (*Client, error) {
	c := &Client{url: url, exchange: exchange, backoff: exponentialBackoff}
	c.redial = c.dial
	if _, err := c.dial(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) dial(context.Context) (publisher, error) {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		c.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.channel, c.pub = conn, channel, channel
	return channel, nil
}

// PublishStateChanged publishes msg under its routing key. Connection
// failures trigger a bounded number of redials with backoff.
func (c *Client) PublishStateChanged(ctx context.Context, msg *StateChangedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    msg.Timestamp,
		Body:         body,
	}

	for attempt := 0; ; attempt++ {
		err = c.publish(ctx, msg.RoutingKey(), publishing)
		if err == nil {
			break
		}
		if !isConnectionError(err) || attempt >= maxRedials {
			return fmt.Errorf("publish message: %w", err)
		}

		wait := c.backoff(attempt)
		slog.WarnContext(ctx, "AMQP publish failed, redialing",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldError, err,
			"attempt", attempt+1,
			"backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if _, derr := c.redial(ctx); derr != nil {
			slog.WarnContext(ctx, "AMQP redial failed", log.FieldComponent, log.ComponentAMQP, log.FieldError, derr)
		}
	}

	slog.DebugContext(ctx, "Published state change",
		log.FieldComponent, log.ComponentAMQP,
		log.FieldSlice, msg.Slice,
		"op", msg.Op,
		"exchange", c.exchange)
	return nil
}

func (c *Client) publish(ctx context.Context, key string, p amqp091.Publishing) error {
	c.mu.Lock()
	pub := c.pub
	c.mu.Unlock()
	if pub == nil {
		return amqp091.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return pub.PublishWithContext(ctx, c.exchange, key, false, false, p)
}

// Consume binds a durable queue to the given slices and hands every message
// to handler until ctx is done. Messages that fail to decode are dropped;
// handler errors requeue the message.
func (c *Client) Consume(ctx context.Context, queue string, keys []string, handler func(*StateChangedMessage) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return errors.New("consume: no open channel")
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range keys {
		if err := channel.QueueBind(queue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue to %s: %w", key, err)
		}
	}

	msgs, err := channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming state changes", log.FieldComponent, log.ComponentAMQP, "queue", queue, "keys", keys)
	return handleDeliveries(ctx, msgs, handler)
}

// acker is the part of amqp091.Delivery the consume loop needs.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type delivery struct {
	body []byte
	ack  acker
}

func handleDeliveries(ctx context.Context, msgs <-chan amqp091.Delivery, handler func(*StateChangedMessage) error) error {
	out := make(chan delivery)
	go func() {
		defer close(out)
		for d := range msgs {
			select {
			case out <- delivery{body: d.Body, ack: d}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return processDeliveries(ctx, out, handler)
}

func processDeliveries(ctx context.Context, in <-chan delivery, handler func(*StateChangedMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", log.FieldComponent, log.ComponentAMQP, "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-in:
			if !ok {
				return errors.New("message channel closed")
			}

			msg, err := StateChangedMessageFromJSON(d.body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", log.FieldComponent, log.ComponentAMQP, log.FieldError, err)
				d.ack.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					log.FieldComponent, log.ComponentAMQP,
					log.FieldError, err,
					log.FieldSlice, msg.Slice,
					"month", msg.Month)
				d.ack.Nack(false, true)
				continue
			}
			d.ack.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "use of closed network connection", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
