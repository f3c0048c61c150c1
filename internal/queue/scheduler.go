package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"zanzar-backend/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Scheduler publishes cancellation jobs into a delay queue. The delay
// queue has no consumers; each message carries a per-message TTL and is
// dead-lettered into the work queue when it expires. Payment settling
// before expiry simply leaves the job to no-op at consume time.
type Scheduler struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	workQueue  string
	delayQueue string
	log        *logger.Logger
}

func NewScheduler(url, workQueue, delayQueue string, log *logger.Logger) (*Scheduler, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	s := &Scheduler{
		conn:       conn,
		channel:    channel,
		workQueue:  workQueue,
		delayQueue: delayQueue,
		log:        log,
	}
	if err := s.declareTopology(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) declareTopology() error {
	if _, err := s.channel.QueueDeclare(
		s.workQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare work queue: %w", err)
	}

	if _, err := s.channel.QueueDeclare(
		s.delayQueue,
		true,
		false,
		false,
		false,
		delayQueueArgs(s.workQueue),
	); err != nil {
		return fmt.Errorf("declare delay queue: %w", err)
	}

	return nil
}

// Schedule enqueues the job to fire after the delay. The message is
// persistent so a broker restart inside the payment window does not lose
// the cancellation.
func (s *Scheduler) Schedule(ctx context.Context, job CancelOrderJob, delay time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.channel.PublishWithContext(ctx,
		"",           // default exchange
		s.delayQueue, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Expiration:   expirationMillis(delay),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish cancellation job: %w", err)
	}

	s.log.Infof("scheduled cancellation of order %s in %s", job.OrderID, delay)
	return nil
}

// delayQueueArgs dead-letters expired messages into the work queue via
// the default exchange.
func delayQueueArgs(workQueue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": workQueue,
	}
}

func expirationMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func (s *Scheduler) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
