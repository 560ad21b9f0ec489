package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// maxReconnectDelay — предел задержки между попытками переподключения.
const maxReconnectDelay = 30 * time.Second

// ErrNoChannel — канал AMQP ещё не открыт или соединение разорвано.
var ErrNoChannel = errors.New("no amqp channel available")

// Connection — соединение с RabbitMQ с переподключением при разрыве.
//
// Воркер держит одно соединение на всё время работы: очередь элементов
// и события о завершении используют общий канал.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	lost    chan *amqp.Error // закрытие текущего conn
	closed  bool

	done        chan struct{}
	reconnected chan struct{}
}

// NewConnection подключается к брокеру и следит за соединением до Close.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		url:         url,
		logger:      logger,
		done:        make(chan struct{}),
		reconnected: make(chan struct{}, 1),
	}

	if err := c.dial(); err != nil {
		return nil, err
	}
	go c.watch()

	return c, nil
}

func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.lost = conn.NotifyClose(make(chan *amqp.Error, 1))
	c.mu.Unlock()

	c.logger.Info("connected to rabbitmq")
	return nil
}

// watch ждёт разрыва соединения и переподключается.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		lost := c.lost
		c.mu.RUnlock()

		select {
		case <-c.done:
			return
		case err := <-lost:
			if err != nil {
				c.logger.Warn("rabbitmq connection lost", "error", err)
			}
		}

		if !c.redial() {
			return
		}
		select {
		case c.reconnected <- struct{}{}:
		default:
		}
	}
}

// redial повторяет подключение с удвоением задержки. false — соединение
// закрыто через Close.
func (c *Connection) redial() bool {
	delay := time.Second
	for {
		c.logger.Info("attempting to reconnect", "delay", delay)
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		if err := c.dial(); err != nil {
			c.logger.Warn("reconnect failed", "error", err)
			delay = min(delay*2, maxReconnectDelay)
			continue
		}
		c.logger.Info("reconnected to rabbitmq")
		return true
	}
}

// Channel возвращает текущий канал AMQP.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// ReconnectNotify сигналит после каждого переподключения.
func (c *Connection) ReconnectNotify() <-chan struct{} {
	return c.reconnected
}

// IsConnected проверяет, открыто ли соединение.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// WithChannel вызывает fn с текущим каналом.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	ch := c.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ch)
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	c.logger.Info("rabbitmq connection closed")
	return errors.Join(errs...)
}
