package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeItemReady     MessageType = "item.ready"
	MessageTypeItemCompleted MessageType = "item.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение в очереди.
//
// ID сообщения с элементом очереди становится ID элемента: по нему
// элемент перезапускается с дашборда.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ItemCompletedPayload — итог обработки элемента.
type ItemCompletedPayload struct {
	ItemID        string    `json:"item_id"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	Outcome       string    `json:"outcome"` // SUCCEEDED, BUSINESS_FAILED, TECHNICAL_FAILED или INTERRUPTED
	FailedPhase   string    `json:"failed_phase,omitempty"`
	Code          string    `json:"code,omitempty"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishItem ставит элемент в очередь. payload — JSON элемента.
// Возвращает ID сообщения, который станет ID элемента.
// Потребитель: Worker.
func (p *Publisher) PublishItem(ctx context.Context, payload json.RawMessage) (string, error) {
	msg := NewMessage(MessageTypeItemReady, payload)
	if err := p.Publish(ctx, ExchangeItems, RoutingKeyReady, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// PublishItemCompleted публикует итог обработки элемента.
func (p *Publisher) PublishItemCompleted(ctx context.Context, payload ItemCompletedPayload) error {
	return p.Publish(ctx, ExchangeEvents, RoutingKeyCompleted, NewMessage(MessageTypeItemCompleted, payload))
}
