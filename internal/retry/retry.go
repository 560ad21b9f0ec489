package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/telemetry"
)

// Значения по умолчанию.
const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 2 * time.Second
	DefaultBackoffFactor = 2.0
)

// ErrExhausted — все попытки исчерпаны на временных ошибках.
var ErrExhausted = errors.New("infrastructure exhausted")

// Classifier решает, является ли ошибка временной.
type Classifier func(err error) bool

// Policy — политика повторных попыток.
type Policy struct {
	// MaxAttempts — максимальное число попыток (включая первую).
	MaxAttempts int

	// BaseDelay — задержка перед второй попыткой.
	BaseDelay time.Duration

	// BackoffFactor — множитель задержки для каждой следующей попытки.
	BackoffFactor float64

	// IsTransient — классификатор ошибок. nil — domain.IsTransient.
	IsTransient Classifier

	// Logger — логгер для сообщений о повторах.
	Logger *slog.Logger

	// sleep заменяется в тестах.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default возвращает политику с параметрами по умолчанию.
func Default() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDelay:     DefaultBaseDelay,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// Attempt — состояние повторов одной операции.
type Attempt struct {
	// Number — номер попытки, начиная с 1.
	Number int

	// Delay — задержка перед следующей попыткой.
	Delay time.Duration

	// Waited — суммарное время ожидания между попытками.
	Waited time.Duration

	// LastErr — ошибка последней попытки.
	LastErr error
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 1
	}
	if p.IsTransient == nil {
		p.IsTransient = domain.IsTransient
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.sleep == nil {
		p.sleep = sleep
	}
	return p
}

// Backoff возвращает задержку после попытки с номером attempt:
// BaseDelay × BackoffFactor^(attempt-1).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(attempt-1)))
}

// Do выполняет fn с повторными попытками на временных ошибках.
//
// Не временная ошибка возвращается сразу, без задержки. После
// MaxAttempts временных ошибок возвращается техническая ошибка,
// оборачивающая ErrExhausted и последнюю ошибку.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	attempt := Attempt{}
	for {
		attempt.Number++
		err := fn(ctx)
		if err == nil {
			return nil
		}

		attempt.LastErr = err
		if !p.IsTransient(err) {
			return err
		}

		if attempt.Number >= p.MaxAttempts {
			p.Logger.Error("operation failed after retries",
				"operation", op,
				"attempts", attempt.Number,
				"waited", attempt.Waited,
				"error", attempt.LastErr,
			)
			return domain.NewTechnicalError(op,
				fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt.Number, attempt.LastErr))
		}

		attempt.Delay = p.Backoff(attempt.Number)
		telemetry.Retries.WithLabelValues(op).Inc()
		p.Logger.Warn("transient error, retrying",
			"operation", op,
			"attempt", attempt.Number,
			"max_attempts", p.MaxAttempts,
			"delay", attempt.Delay,
			"error", attempt.LastErr,
		)

		if err := p.sleep(ctx, attempt.Delay); err != nil {
			return err
		}
		attempt.Waited += attempt.Delay
	}
}

// Value выполняет fn с повторными попытками и возвращает результат.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// sleep ждёт d с учётом контекста.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
