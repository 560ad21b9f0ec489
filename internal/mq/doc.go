// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация элементов и событий
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - item.ready      — элемент очереди на выписку
//   - item.completed  — итог обработки элемента
//
// Exchanges:
//   - discharge.items   — элементы для воркера
//   - discharge.events  — события о завершении
//   - discharge.dlq     — dead letter queue
package mq
