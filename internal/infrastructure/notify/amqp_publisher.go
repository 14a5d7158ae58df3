package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

const DefaultExchange = "session_updates"

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends session updates to a topic exchange with routing key
// session.<id>. A channel is not safe for concurrent publishes, so Publish
// is serialised.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       amqpChannel
	exchange string
}

func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return newAMQPPublisher(ch, exchange), nil
}

func newAMQPPublisher(ch amqpChannel, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: exchange}
}

func RoutingKey(sessionID string) string {
	return fmt.Sprintf("session.%s", sessionID)
}

func (p *AMQPPublisher) Publish(ctx context.Context, update domain.SessionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal session update: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.Publish(p.exchange, RoutingKey(update.SessionID), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    update.Timestamp,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
