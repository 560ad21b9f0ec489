package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/shaiso/discharge/internal/domain"
)

// recorder записывает порядок вызова шагов.
type recorder struct {
	calls []string
}

func (r *recorder) action(name string, err error) Step {
	return Action(name, func(ctx context.Context, pc *Context) error {
		r.calls = append(r.calls, name)
		return err
	})
}

func (r *recorder) gate(name string, skip bool) Step {
	return Gate(name, func(ctx context.Context, pc *Context) (bool, error) {
		r.calls = append(r.calls, name)
		return skip, nil
	})
}

func newTestContext() *Context {
	return NewContext(&domain.WorkItem{ID: "1", PatientName: "Anna Jensen"}, domain.Recipient{ClinicLabel: " "})
}

func TestExecutor_AllSteps(t *testing.T) {
	r := &recorder{}
	e := NewExecutor(Config{
		Main: []Step{r.gate("sent?", false), r.action("a", nil), r.action("b", nil)},
		Tail: []Step{r.action("t1", nil), r.action("t2", nil)},
	})

	result, err := e.Run(context.Background(), newTestContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"sent?", "a", "b", "t1", "t2"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("expected calls %v, got %v", want, r.calls)
	}
	if result.State != StateDone {
		t.Errorf("expected DONE, got %s", result.State)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("expected no skipped steps, got %v", result.Skipped)
	}
}

func TestExecutor_GateSkipsMainButRunsTail(t *testing.T) {
	r := &recorder{}
	e := NewExecutor(Config{
		Main: []Step{r.gate("sent?", true), r.action("a", nil), r.action("b", nil)},
		Tail: []Step{r.action("receipt", nil), r.action("rename", nil)},
	})

	result, err := e.Run(context.Background(), newTestContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"sent?", "receipt", "rename"}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("expected calls %v, got %v", want, r.calls)
	}
	if !reflect.DeepEqual(result.Skipped, []string{"a", "b"}) {
		t.Errorf("expected skipped [a b], got %v", result.Skipped)
	}
	if result.SkippedBy != "sent?" {
		t.Errorf("expected skipped by gate, got %q", result.SkippedBy)
	}
}

func TestExecutor_MainErrorStopsWithoutTail(t *testing.T) {
	r := &recorder{}
	boom := domain.NewSyncTimeoutError("next button")
	e := NewExecutor(Config{
		Main: []Step{r.action("a", nil), r.action("b", boom), r.action("c", nil)},
		Tail: []Step{r.action("t1", nil)},
	})

	result, err := e.Run(context.Background(), newTestContext())

	if !reflect.DeepEqual(r.calls, []string{"a", "b"}) {
		t.Errorf("unexpected calls %v", r.calls)
	}
	if result.State != StateFailed {
		t.Errorf("expected FAILED, got %s", result.State)
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Step != "b" || stepErr.Phase != PhaseMain {
		t.Errorf("unexpected step error: %+v", stepErr)
	}
	// Класс ошибки сохраняется через обёртку
	if domain.KindOf(err) != domain.KindSyncTimeout {
		t.Errorf("expected sync timeout kind, got %s", domain.KindOf(err))
	}
}

func TestExecutor_TailErrorReturnedAfterEarlierTailSteps(t *testing.T) {
	r := &recorder{}
	boom := errors.New("receipt not found")
	e := NewExecutor(Config{
		Main: []Step{r.action("a", nil)},
		Tail: []Step{r.action("t1", nil), r.action("t2", boom), r.action("t3", nil)},
	})

	result, err := e.Run(context.Background(), newTestContext())

	if !reflect.DeepEqual(r.calls, []string{"a", "t1", "t2"}) {
		t.Errorf("unexpected calls %v", r.calls)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Phase != PhaseTail || stepErr.Step != "t2" {
		t.Errorf("expected tail step error for t2, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected original error in chain")
	}
	if result.State != StateFailed {
		t.Errorf("expected FAILED, got %s", result.State)
	}
}

func TestExecutor_NonGateSkipIsIgnored(t *testing.T) {
	r := &recorder{}
	rogue := New("rogue", KindAction, func(ctx context.Context, pc *Context) (Signal, error) {
		r.calls = append(r.calls, "rogue")
		return SkipRemaining, nil
	})
	e := NewExecutor(Config{
		Main: []Step{rogue, r.action("a", nil)},
	})

	result, err := e.Run(context.Background(), newTestContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(r.calls, []string{"rogue", "a"}) {
		t.Errorf("action skip should be ignored, calls %v", r.calls)
	}
	if result.SkippedBy != "" {
		t.Errorf("expected no skip, got %q", result.SkippedBy)
	}
}

func TestExecutor_StepsShareContext(t *testing.T) {
	e := NewExecutor(Config{
		Main: []Step{
			Action("set", func(ctx context.Context, pc *Context) error {
				pc.ReceiptPath = "/tmp/receipt.pdf"
				return nil
			}),
		},
		Tail: []Step{
			Query("read", func(ctx context.Context, pc *Context) error {
				if pc.ReceiptPath != "/tmp/receipt.pdf" {
					return errors.New("context not shared")
				}
				return nil
			}),
		},
	})

	if _, err := e.Run(context.Background(), newTestContext()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecutor_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	r := &recorder{}
	e := NewExecutor(Config{
		Main:   []Step{r.gate("sent?", true), r.action("a", nil)},
		Tail:   []Step{r.action("t1", nil)},
		Tracer: tp.Tracer("test"),
	})

	if _, err := e.Run(context.Background(), newTestContext()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Пропущенные шаги не создают спанов
	if got := len(sr.Ended()); got != 2 {
		t.Errorf("expected 2 spans, got %d", got)
	}
}

func TestContext_SetTemplate(t *testing.T) {
	pc := NewContext(
		&domain.WorkItem{PatientName: "Anna Jensen"},
		domain.ResolveRecipient(domain.ExternClinic{ContractorID: domain.ContractorBrobjergparken}),
	)
	pc.SetTemplate(domain.ContentTemplate{Subject: "Udskrivning", Body: "x"})

	want := "Udskrivning på Tandklinikken Brobjergparken Anna Jensen"
	if pc.Subject != want {
		t.Errorf("expected %q, got %q", want, pc.Subject)
	}
}
