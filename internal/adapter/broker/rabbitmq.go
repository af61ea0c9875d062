package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrNotConnected = errors.New("not connected to broker")
	ErrClosed       = errors.New("publisher is closed")
)

const publishTimeout = 5 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher pushes domain events to a single durable queue on the default exchange.
type Publisher struct {
	queue   string
	conn    *amqp.Connection
	channel channel
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func Dial(url, queue string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	logger.Info("connected to broker", "queue", queue)
	return &Publisher{
		queue:   queue,
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

// Handle publishes event as JSON. It matches messagebus.EventHandler.
func (p *Publisher) Handle(event domain.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	if p.channel == nil {
		return ErrNotConnected
	}

	msg, err := encode(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type(), err)
	}
	p.logger.Debug("event published", "type", event.Type(), "queue", p.queue)
	return nil
}

// Close waits for in-flight publishes and closes the channel. Handle fails
// with ErrClosed afterwards.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func encode(event domain.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s: %w", event.Type(), err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.PublishedAt(),
		Type:         event.Type(),
		Body:         body,
	}, nil
}
