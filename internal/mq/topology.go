package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeItems  Exchange = "discharge.items"
	ExchangeEvents Exchange = "discharge.events"
	ExchangeDLQ    Exchange = "discharge.dlq"
)

// Queues — имена очередей.
const (
	QueueItems          Queue = "discharge.items"
	QueueItemsCompleted Queue = "discharge.items.completed"
	QueueDLQItems       Queue = "discharge.dlq.items"
)

// Routing keys.
const (
	RoutingKeyReady     RoutingKey = "ready"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQItems  RoutingKey = "items"
)

type queueDef struct {
	name Queue
	args amqp.Table
}

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// queues возвращает очереди топологии. Элементы, отклонённые воркером,
// уходят в discharge.dlq.items.
func queues() []queueDef {
	return []queueDef{
		{QueueItems, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQItems),
		}},
		{QueueItemsCompleted, nil},
		{QueueDLQItems, nil},
	}
}

func bindings() []binding {
	return []binding{
		{QueueItems, RoutingKeyReady, ExchangeItems},
		{QueueItemsCompleted, RoutingKeyCompleted, ExchangeEvents},
		{QueueDLQItems, RoutingKeyDLQItems, ExchangeDLQ},
	}
}

// SetupTopology объявляет обменники, очереди и привязки.
// Повторный вызов с теми же параметрами ничего не меняет.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeItems, ExchangeEvents, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, q := range queues() {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings() {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Discharge RabbitMQ Topology:

    discharge.items (direct)
    └── discharge.items [routing: ready]
            Consumer: Worker (prefetch 1)
            DLQ: discharge.dlq.items

    discharge.events (direct)
    └── discharge.items.completed [routing: completed]
            Consumer: dashboard / operators

    discharge.dlq (direct)
    └── discharge.dlq.items [routing: items]
            Manual processing
  `
}
