package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/retry"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestGuard() *Guard {
	return New(Config{
		Retry: retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, BackoffFactor: 1},
		Now:   func() time.Time { return fixedNow },
	})
}

func TestEnsureOnce_CreatesWhenMissing(t *testing.T) {
	g := newTestGuard()
	created := 0

	outcome, err := g.EnsureOnce(context.Background(), Check{
		Name:   "medical_record",
		Exists: func(ctx context.Context, since time.Time) (int, error) { return 0, nil },
		Create: func(ctx context.Context) error { created++; return nil },
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("expected created, got %s", outcome)
	}
	if created != 1 {
		t.Errorf("expected 1 create, got %d", created)
	}
}

func TestEnsureOnce_SkipsWhenExists(t *testing.T) {
	g := newTestGuard()

	outcome, err := g.EnsureOnce(context.Background(), Check{
		Name:   "receipt",
		Exists: func(ctx context.Context, since time.Time) (int, error) { return 1, nil },
		Create: func(ctx context.Context) error {
			t.Error("create must not be called")
			return nil
		},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("expected skipped, got %s", outcome)
	}
}

func TestEnsureOnce_RepeatedRunsCreateOnce(t *testing.T) {
	// Журнал пациента: после создания артефакт виден в следующих проверках
	g := newTestGuard()
	var artifacts []time.Time

	check := Check{
		Name: "administrative_note",
		Exists: func(ctx context.Context, since time.Time) (int, error) {
			n := 0
			for _, at := range artifacts {
				if !at.Before(since) {
					n++
				}
			}
			return n, nil
		},
		Create: func(ctx context.Context) error {
			artifacts = append(artifacts, fixedNow)
			return nil
		},
	}

	for i := 0; i < 3; i++ {
		if _, err := g.EnsureOnce(context.Background(), check); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}
	if len(artifacts) != 1 {
		t.Errorf("expected exactly 1 artifact, got %d", len(artifacts))
	}
}

func TestEnsureOnce_WindowPassedToExists(t *testing.T) {
	g := newTestGuard()
	var gotSince time.Time

	_, _ = g.EnsureOnce(context.Background(), Check{
		Name: "receipt",
		Exists: func(ctx context.Context, since time.Time) (int, error) {
			gotSince = since
			return 1, nil
		},
		Create: func(ctx context.Context) error { return nil },
	})

	want := fixedNow.Add(-30 * 24 * time.Hour)
	if !gotSince.Equal(want) {
		t.Errorf("expected since %v, got %v", want, gotSince)
	}

	// Окно проверки переопределяет окно Guard
	_, _ = g.EnsureOnce(context.Background(), Check{
		Name: "receipt",
		Exists: func(ctx context.Context, since time.Time) (int, error) {
			gotSince = since
			return 1, nil
		},
		Create: func(ctx context.Context) error { return nil },
		Window: time.Hour,
	})
	if !gotSince.Equal(fixedNow.Add(-time.Hour)) {
		t.Errorf("expected custom window, got %v", gotSince)
	}
}

func TestEnsureOnce_ExistsRetriedOnTransient(t *testing.T) {
	g := newTestGuard()
	calls := 0

	outcome, err := g.EnsureOnce(context.Background(), Check{
		Name: "medical_record",
		Exists: func(ctx context.Context, since time.Time) (int, error) {
			calls++
			if calls == 1 {
				return 0, domain.NewTransientError("db", errors.New("connection reset"))
			}
			return 1, nil
		},
		Create: func(ctx context.Context) error { return nil },
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeSkipped || calls != 2 {
		t.Errorf("expected skipped after 2 calls, got %s after %d", outcome, calls)
	}
}

func TestEnsureOnce_CreateErrorNotRetried(t *testing.T) {
	g := newTestGuard()
	calls := 0
	boom := domain.NewTransientError("app", errors.New("window closed"))

	_, err := g.EnsureOnce(context.Background(), Check{
		Name:   "medical_record",
		Exists: func(ctx context.Context, since time.Time) (int, error) { return 0, nil },
		Create: func(ctx context.Context) error { calls++; return boom },
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected create error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("create must run once, got %d", calls)
	}
}

func TestEnsureOnce_IncompleteCheck(t *testing.T) {
	_, err := newTestGuard().EnsureOnce(context.Background(), Check{Name: "x"})
	if !errors.Is(err, ErrIncompleteCheck) {
		t.Errorf("expected ErrIncompleteCheck, got %v", err)
	}
}
