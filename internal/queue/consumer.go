package queue

import (
	"context"
	"fmt"

	"zanzar-backend/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer drains a durable queue with manual acknowledgement. A handler
// error nacks the delivery back onto the queue; handlers must swallow
// errors that will never succeed on retry.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	prefetch int
	log      *logger.Logger
}

func NewConsumer(url, queue string, prefetch int, log *logger.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.Qos(prefetch, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:     conn,
		channel:  channel,
		queue:    queue,
		prefetch: prefetch,
		log:      log,
	}, nil
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// Consume blocks until the context is cancelled or the channel closes.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	if _, err := c.channel.QueueDeclare(
		c.queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	c.log.Infof("consuming queue %s (prefetch %d)", c.queue, c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", c.queue)
			}
			if err := handler(ctx, msg.Body); err != nil {
				c.log.Errorf("handle message from %s: %v", c.queue, err)
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}
