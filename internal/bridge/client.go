package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/session"
)

// DefaultCallTimeout — время ожидания ответа агента, если у контекста
// нет дедлайна.
const DefaultCallTimeout = 2 * time.Minute

// Config — конфигурация Client.
type Config struct {
	// URL — адрес агента (ws://host:port/rpc).
	URL string

	// CallTimeout — время ожидания ответа. 0 — DefaultCallTimeout.
	CallTimeout time.Duration

	Logger *slog.Logger
}

// Client вызывает методы агента рабочей станции по WebSocket.
//
// Вызовы выполняются по одному: следующий запрос отправляется только
// после ответа на предыдущий. Соединение устанавливается при первом
// вызове и переустанавливается после ошибки.
type Client struct {
	url         string
	callTimeout time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// New создаёт Client.
func New(cfg Config) *Client {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:         cfg.URL,
		callTimeout: timeout,
		logger:      logger.With("component", "bridge"),
	}
}

// Call отправляет запрос и ждёт ответ с тем же ID.
//
// Если result != nil, результат агента декодируется в него.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params for %s: %w", method, err)
	}
	req := Request{ID: uuid.NewString(), Method: method, Params: raw}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.callTimeout)
	}

	start := time.Now()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return c.fail(method, err)
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return c.fail(method, err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return c.fail(method, err)
	}
	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			return c.fail(method, err)
		}
		if resp.ID != req.ID {
			c.logger.Warn("dropping response for another request",
				"method", method,
				"request_id", req.ID,
				"response_id", resp.ID,
			)
			continue
		}

		c.logger.Debug("agent call finished", "method", method, "duration", time.Since(start))

		if resp.Error != nil {
			resp.Error.Method = method
			return domain.NewTechnicalError(method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("decode result of %s: %w", method, err)
			}
		}
		return nil
	}
}

// Close закрывает соединение с агентом.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return domain.NewTransientError("dial agent", fmt.Errorf("%w: %w", ErrNotConnected, err))
	}
	c.conn = conn
	c.logger.Info("connected to agent", "url", c.url)
	return nil
}

// fail закрывает соединение после ошибки транспорта.
func (c *Client) fail(method string, err error) error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.logger.Error("agent call failed", "method", method, "error", err)
	return domain.NewTechnicalError(method, fmt.Errorf("%w: %w", ErrTransport, err))
}

// App — приложение журнала пациентов, управляемое через агента.
type App struct {
	client *Client
}

// NewApp создаёт App поверх Client.
func NewApp(client *Client) *App {
	return &App{client: client}
}

// OpenPatient реализует session.App.
func (a *App) OpenPatient(ctx context.Context, cpr string) error {
	return a.client.Call(ctx, MethodOpenPatient, map[string]string{"cpr": cpr}, nil)
}

// CreateDocument реализует session.App.
func (a *App) CreateDocument(ctx context.Context, path string) error {
	return a.client.Call(ctx, MethodCreateDocument, map[string]string{"path": path}, nil)
}

// CreateJournalNote реализует session.App.
func (a *App) CreateJournalNote(ctx context.Context, text string, complete bool) error {
	return a.client.Call(ctx, MethodCreateJournalNote, map[string]any{"text": text, "complete": complete}, nil)
}

// CreateDigitalPrintedJournal реализует session.App.
func (a *App) CreateDigitalPrintedJournal(ctx context.Context) error {
	return a.client.Call(ctx, MethodCreateDigitalPrintedJournal, struct{}{}, nil)
}

// OpenEDIPortal реализует session.App.
func (a *App) OpenEDIPortal(ctx context.Context) error {
	return a.client.Call(ctx, MethodOpenEDIPortal, struct{}{}, nil)
}

// CloseEDIPortal реализует session.App.
func (a *App) CloseEDIPortal(ctx context.Context) error {
	return a.client.Call(ctx, MethodCloseEDIPortal, struct{}{}, nil)
}

// ClosePatientWindow реализует session.App.
func (a *App) ClosePatientWindow(ctx context.Context) error {
	return a.client.Call(ctx, MethodClosePatientWindow, struct{}{}, nil)
}

// Close реализует session.App: закрывает приложение, затем соединение
// с агентом.
func (a *App) Close(ctx context.Context) error {
	err := a.client.Call(ctx, MethodClose, struct{}{}, nil)
	if cerr := a.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// HardClose реализует session.App.
func (a *App) HardClose(ctx context.Context, process string) error {
	return a.client.Call(ctx, MethodHardClose, map[string]string{"process": process}, nil)
}

var _ session.App = (*App)(nil)
