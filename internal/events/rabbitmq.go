package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
)

type RabbitPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
}

func dialWithRetry(url string, maxRetries int) (*amqp.Connection, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if i < maxRetries-1 {
			wait := time.Duration(1<<uint(i)) * time.Second
			logger.Warn("rabbitmq connection failed, retrying", "attempt", i+1, "wait", wait.String(), "error", err)
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("connect to rabbitmq after %d attempts: %w", maxRetries, lastErr)
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := dialWithRetry(url, 5)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	logger.Info("event publisher connected", "exchange", exchange)
	return &RabbitPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish routes e by its type, e.g. order.completed.
func (p *RabbitPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		e.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    e.ID.String(),
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
