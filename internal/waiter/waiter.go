package waiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/telemetry"
	"github.com/shaiso/discharge/internal/ui"
)

// Значения по умолчанию.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// Target — цель ожидания: элемент, заданный списком кандидатов.
type Target struct {
	// Name — имя цели для логов и ошибок.
	Name string

	// Candidates — селекторы в порядке приоритета.
	Candidates []ui.Selector

	// PollInterval — интервал опроса. 0 — DefaultPollInterval.
	PollInterval time.Duration

	// Timeout — максимальное время ожидания. 0 — DefaultTimeout.
	Timeout time.Duration
}

// NewTarget создаёт цель с параметрами по умолчанию.
func NewTarget(name string, candidates ...ui.Selector) Target {
	return Target{Name: name, Candidates: candidates}
}

// Within возвращает копию цели с другим таймаутом.
func (t Target) Within(timeout time.Duration) Target {
	t.Timeout = timeout
	return t
}

// Every возвращает копию цели с другим интервалом опроса.
func (t Target) Every(interval time.Duration) Target {
	t.PollInterval = interval
	return t
}

// Condition — одна проверка условия. Ошибка считается как «условие не выполнено».
type Condition func(ctx context.Context) (bool, error)

// Config — конфигурация Waiter.
type Config struct {
	Accessor     ui.Accessor
	Logger       *slog.Logger
	PollInterval time.Duration
	Timeout      time.Duration
}

// Waiter ждёт появления и исчезновения элементов интерфейса.
type Waiter struct {
	accessor     ui.Accessor
	logger       *slog.Logger
	pollInterval time.Duration
	timeout      time.Duration
}

// New создаёт Waiter.
func New(cfg Config) *Waiter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Waiter{
		accessor:     cfg.Accessor,
		logger:       logger.With("component", "waiter"),
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

// Accessor возвращает интерфейс, с которым работает Waiter.
func (w *Waiter) Accessor() ui.Accessor {
	return w.accessor
}

// AwaitPresence ждёт, пока появится любой из кандидатов, и возвращает
// первый найденный элемент.
//
// Кандидаты проверяются по порядку на каждом опросе. Если ни один не
// появился за Timeout, возвращается ошибка класса KindSyncTimeout.
func (w *Waiter) AwaitPresence(ctx context.Context, target Target) (ui.Element, error) {
	var found ui.Selector

	present := func(ctx context.Context) (bool, error) {
		var lastErr error
		for _, sel := range target.Candidates {
			ok, err := w.accessor.Exists(ctx, sel)
			if err != nil {
				lastErr = err
				continue
			}
			if ok {
				found = sel
				return true, nil
			}
		}
		return false, lastErr
	}

	if err := w.poll(ctx, target, present); err != nil {
		return ui.Element{}, err
	}

	el, err := w.accessor.Find(ctx, found)
	if err != nil {
		return ui.Element{}, domain.NewTechnicalError("find "+target.Name, err)
	}
	return el, nil
}

// AwaitAbsence ждёт, пока исчезнут все кандидаты.
//
// Кандидат, проверка которого завершилась ошибкой, считается
// отсутствующим на этом опросе.
func (w *Waiter) AwaitAbsence(ctx context.Context, target Target) error {
	cond := func(ctx context.Context) (bool, error) {
		var lastErr error
		for _, sel := range target.Candidates {
			ok, err := w.accessor.Exists(ctx, sel)
			if err != nil {
				lastErr = err
				continue
			}
			if ok {
				return false, nil
			}
		}
		if lastErr != nil {
			w.logger.Warn("element query failed while waiting for absence",
				"target", target.Name,
				"error", lastErr,
			)
		}
		return true, nil
	}

	return w.poll(ctx, target, cond)
}

// Poll ждёт, пока cond вернёт true.
//
// Используется для ожиданий вне интерфейса (например, появления файла).
func (w *Waiter) Poll(ctx context.Context, name string, interval, timeout time.Duration, cond Condition) error {
	return w.poll(ctx, Target{Name: name, PollInterval: interval, Timeout: timeout}, cond)
}

func (w *Waiter) poll(ctx context.Context, target Target, cond Condition) error {
	interval := target.PollInterval
	if interval <= 0 {
		interval = w.pollInterval
	}
	timeout := target.Timeout
	if timeout <= 0 {
		timeout = w.timeout
	}

	if err := Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		ok, err := cond(ctx)
		if err != nil {
			w.logger.Error("error while polling", "target", target.Name, "error", err)
			return false, nil
		}
		return ok, nil
	}); err != nil {
		if domain.IsSyncTimeout(err) {
			telemetry.SyncTimeouts.WithLabelValues(target.Name).Inc()
			w.logger.Warn("timeout reached while waiting",
				"target", target.Name,
				"timeout", timeout,
			)
			return domain.NewSyncTimeoutError(target.Name)
		}
		return err
	}
	return nil
}

// Poll вызывает cond сразу и затем каждые interval, пока cond не вернёт
// true или не истечёт timeout.
//
// Ошибка cond считается как «условие не выполнено». По истечении timeout
// возвращается ошибка, для которой domain.IsSyncTimeout == true.
func Poll(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ok, err := cond(ctx); err == nil && ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return domain.NewSyncTimeoutError("poll")
		case <-ticker.C:
		}
	}
}
