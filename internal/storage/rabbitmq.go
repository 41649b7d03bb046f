package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"talenttrack/internal/config"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher is the fire-and-forget domain event boundary. Handlers emit
// events after successful writes; a downstream notifier consumes them
// (e.g. candidate emails for scheduled interviews).
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, data interface{}) error
	Close() error
}

var _ EventPublisher = (*RabbitMQ)(nil)

// Event is the envelope every published message is wrapped in.
type Event struct {
	EventID    string      `json:"event_id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// RabbitMQ publishes domain events to a single direct exchange.
type RabbitMQ struct {
	conn        *amqp.Connection
	channelPool sync.Pool
	cfg         *config.RabbitMQConfig

	declareOnce sync.Once
	declareErr  error
}

// NewRabbitMQ connects to the broker and prepares a pooled channel source.
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rabbitmq config cannot be nil")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq URL is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq (%s): %w", cfg.URL, err)
	}

	mq := &RabbitMQ{conn: conn, cfg: cfg}
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, chErr := conn.Channel()
			if chErr != nil {
				return nil
			}
			return ch
		},
	}

	return mq, nil
}

// Close closes the broker connection.
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

func (r *RabbitMQ) ensureExchange(ch *amqp.Channel) error {
	r.declareOnce.Do(func() {
		r.declareErr = ch.ExchangeDeclare(
			r.cfg.EventsExchange,
			"direct",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		)
	})
	return r.declareErr
}

// PublishJSON wraps data in an event envelope and publishes it persistently
// under the given routing key.
func (r *RabbitMQ) PublishJSON(ctx context.Context, routingKey string, data interface{}) error {
	chAny := r.channelPool.Get()
	if chAny == nil {
		return fmt.Errorf("failed to obtain rabbitmq channel")
	}
	ch := chAny.(*amqp.Channel)

	err := r.publishOn(ctx, ch, routingKey, data)
	r.releaseChannel(ch, err)
	return err
}

func (r *RabbitMQ) publishOn(ctx context.Context, ch *amqp.Channel, routingKey string, data interface{}) error {
	if err := r.ensureExchange(ch); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", r.cfg.EventsExchange, err)
	}

	event := Event{
		EventID:    uuid.NewString(),
		Type:       routingKey,
		OccurredAt: time.Now(),
		Payload:    data,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	timeout := time.Duration(r.cfg.PublishTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	publishCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return ch.PublishWithContext(publishCtx,
		r.cfg.EventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}

// releaseChannel returns a healthy channel to the pool. The broker closes a
// channel on any channel-level error, so one that saw a publish failure is
// dropped instead of recycled; the pool's New mints a replacement.
func (r *RabbitMQ) releaseChannel(ch *amqp.Channel, err error) {
	if err != nil {
		return
	}
	r.channelPool.Put(ch)
}
