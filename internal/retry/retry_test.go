package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/discharge/internal/domain"
)

// testPolicy возвращает политику, которая записывает задержки вместо сна.
func testPolicy(delays *[]time.Duration) Policy {
	p := Policy{
		MaxAttempts:   3,
		BaseDelay:     2 * time.Second,
		BackoffFactor: 2,
	}
	p.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

func TestDo_TransientThenSuccess(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := testPolicy(&delays).Do(context.Background(), "query", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return domain.NewTransientError("db", errors.New("connection reset"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Errorf("expected delays [2s 4s], got %v", delays)
	}
}

func TestDo_Exhausted(t *testing.T) {
	var delays []time.Duration
	calls := 0
	last := domain.NewTransientError("db", errors.New("timeout 3"))

	err := testPolicy(&delays).Do(context.Background(), "query", func(ctx context.Context) error {
		calls++
		if calls == 3 {
			return last
		}
		return domain.NewTransientError("db", errors.New("timeout"))
	})

	if calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", calls)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, last) {
		t.Error("expected last transient error in chain")
	}
	// Исчерпанные попытки — уже не временная ошибка
	if domain.KindOf(err) != domain.KindTechnical {
		t.Errorf("expected technical kind, got %s", domain.KindOf(err))
	}
	// d, затем d·b; после последней попытки паузы нет
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Errorf("expected delays [2s 4s], got %v", delays)
	}
}

func TestDo_NonTransientPropagatesImmediately(t *testing.T) {
	var delays []time.Duration
	calls := 0
	fatal := domain.NewBusinessError("1G", "no contract")

	err := testPolicy(&delays).Do(context.Background(), "query", func(ctx context.Context) error {
		calls++
		return fatal
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("expected no delay, got %v", delays)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("expected original error, got %v", err)
	}
}

func TestDo_CustomClassifier(t *testing.T) {
	var delays []time.Duration
	flaky := errors.New("flaky")
	calls := 0

	p := testPolicy(&delays)
	p.IsTransient = func(err error) bool { return errors.Is(err, flaky) }

	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return flaky
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("expected success on second call, got %v after %d calls", err, calls)
	}
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour, BackoffFactor: 2}
	err := p.Do(ctx, "op", func(ctx context.Context) error {
		return domain.NewTransientError("db", errors.New("down"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValue(t *testing.T) {
	var delays []time.Duration
	calls := 0

	v, err := Value(context.Background(), testPolicy(&delays), "count", func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, domain.NewTransientError("db", errors.New("down"))
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestBackoff(t *testing.T) {
	p := Policy{BaseDelay: time.Second, BackoffFactor: 3}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 3 * time.Second},
		{3, 9 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}
