package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/retry"
	"github.com/shaiso/discharge/internal/telemetry"
)

// DefaultWindow — окно поиска уже созданного артефакта.
const DefaultWindow = 30 * 24 * time.Hour

// ErrIncompleteCheck — проверка не содержит функций Exists или Create.
var ErrIncompleteCheck = errors.New("idempotency check requires exists and create")

// Outcome — итог EnsureOnce.
type Outcome string

const (
	// OutcomeCreated — артефакта не было, он создан.
	OutcomeCreated Outcome = "created"

	// OutcomeSkipped — артефакт уже есть, создание пропущено.
	OutcomeSkipped Outcome = "skipped"
)

// Check — проверка перед созданием артефакта.
type Check struct {
	// Name — вид артефакта для логов и метрик.
	Name string

	// Exists возвращает число найденных артефактов, созданных не раньше since.
	Exists func(ctx context.Context, since time.Time) (int, error)

	// Create создаёт артефакт.
	Create func(ctx context.Context) error

	// Window — окно поиска. 0 — DefaultWindow.
	Window time.Duration
}

// Config — конфигурация Guard.
type Config struct {
	Retry  retry.Policy
	Window time.Duration
	Logger *slog.Logger

	// Now — источник времени. nil — time.Now.
	Now func() time.Time
}

// Guard не даёт создать артефакт повторно при перезапуске процесса.
type Guard struct {
	retry  retry.Policy
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New создаёт Guard.
func New(cfg Config) *Guard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	policy := cfg.Retry
	if policy.Logger == nil {
		policy.Logger = logger
	}

	return &Guard{
		retry:  policy,
		window: window,
		logger: logger.With("component", "guard"),
		now:    now,
	}
}

// EnsureOnce создаёт артефакт, если он ещё не создан в пределах окна.
//
// Проверка существования выполняется через retry.Policy. Ошибка Create
// возвращается без изменений: повторять создание здесь нельзя.
func (g *Guard) EnsureOnce(ctx context.Context, check Check) (Outcome, error) {
	if check.Exists == nil || check.Create == nil {
		return "", fmt.Errorf("%w: %s", ErrIncompleteCheck, check.Name)
	}

	window := check.Window
	if window <= 0 {
		window = g.window
	}
	since := g.now().In(domain.Copenhagen).Add(-window)

	logger := g.logger.With("artifact", check.Name)
	logger.Info("checking for existing artifact", "since", since.Format(time.RFC3339))

	count, err := retry.Value(ctx, g.retry, "exists "+check.Name, func(ctx context.Context) (int, error) {
		return check.Exists(ctx, since)
	})
	if err != nil {
		return "", fmt.Errorf("check %s: %w", check.Name, err)
	}

	if count > 0 {
		logger.Info("artifact already exists, skipping creation", "count", count)
		telemetry.IdempotencyOutcomes.WithLabelValues(check.Name, string(OutcomeSkipped)).Inc()
		return OutcomeSkipped, nil
	}

	logger.Info("artifact not found, creating")
	if err := check.Create(ctx); err != nil {
		return "", fmt.Errorf("create %s: %w", check.Name, err)
	}
	logger.Info("artifact created")
	telemetry.IdempotencyOutcomes.WithLabelValues(check.Name, string(OutcomeCreated)).Inc()

	return OutcomeCreated, nil
}
