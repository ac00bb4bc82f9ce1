package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const amqpExchange = "kitchen_events"

// AMQPBridge implements Bridge over a RabbitMQ direct exchange. Each
// subscription gets an exclusive auto-delete queue bound with the channel key,
// so nothing is kept for instances that are not listening.
type AMQPBridge struct {
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	mu     sync.Mutex // serializes publishes on pubCh
	logger *zap.Logger
}

// NewAMQPBridge dials RabbitMQ and declares the exchange.
func NewAMQPBridge(url string, logger *zap.Logger) (*AMQPBridge, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(amqpExchange, amqp.ExchangeDirect, false, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	logger.Info("RabbitMQ bridge connected", zap.String("exchange", amqpExchange))
	return &AMQPBridge{conn: conn, pubCh: ch, logger: logger}, nil
}

// Publish sends an event with the channel key as routing key.
func (b *AMQPBridge) Publish(ctx context.Context, channel, event string, payload []byte) error {
	body, err := marshalBridge(event, payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubCh.PublishWithContext(ctx, amqpExchange, channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Body:         body,
	})
}

// Subscribe binds a private queue to channel and calls handler for each
// delivery until cancel is called.
func (b *AMQPBridge) Subscribe(channel string, handler func(event string, payload []byte)) (cancel func(), err error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, channel, amqpExchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	go func() {
		for d := range deliveries {
			var m bridgeMessage
			if err := json.Unmarshal(d.Body, &m); err != nil {
				b.logger.Debug("drop malformed bridge message", zap.String("channel", channel), zap.Error(err))
				continue
			}
			handler(m.Event, m.Data)
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { _ = ch.Close() }) }, nil
}

// Close closes the RabbitMQ connection.
func (b *AMQPBridge) Close() error {
	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	return b.conn.Close()
}
