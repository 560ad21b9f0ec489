package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/mq"
	"github.com/shaiso/discharge/internal/orchestrator"
)

// fakeProcessor возвращает заданную ошибку и запоминает элементы.
type fakeProcessor struct {
	err    error
	items  []*domain.WorkItem
	ctxErr error
}

func (p *fakeProcessor) Process(ctx context.Context, item *domain.WorkItem) (*orchestrator.Result, error) {
	p.items = append(p.items, item)
	p.ctxErr = ctx.Err()
	return &orchestrator.Result{
		Outcome:     domain.OutcomeFor(p.err),
		FailedPhase: orchestrator.PhaseInitChecks,
		Duration:    1500 * time.Millisecond,
	}, p.err
}

type fakePublisher struct {
	events []mq.ItemCompletedPayload
	err    error
}

func (p *fakePublisher) PublishItemCompleted(ctx context.Context, payload mq.ItemCompletedPayload) error {
	p.events = append(p.events, payload)
	return p.err
}

func itemDelivery(payload string) *mq.Delivery {
	return &mq.Delivery{Message: mq.Message{
		ID:      "msg-1",
		Type:    mq.MessageTypeItemReady,
		Payload: map[string]any{"raw": payload},
	}}
}

func validDelivery() *mq.Delivery {
	return &mq.Delivery{Message: mq.Message{
		ID:   "msg-1",
		Type: mq.MessageTypeItemReady,
		Payload: map[string]any{
			"cpr":                     "0101101234",
			"name":                    "Anna Jensen",
			"new_clinic_ydernummer":   "123456",
			"new_clinic_phone_number": "87654321",
		},
	}}
}

func newTestWorker(t *testing.T, p Processor, pub EventPublisher) *Worker {
	t.Helper()
	return New(Config{
		Processor: p,
		Publisher: pub,
		LockPath:  filepath.Join(t.TempDir(), "session.lock"),
	})
}

func TestHandleItem_Success(t *testing.T) {
	proc := &fakeProcessor{}
	pub := &fakePublisher{}
	w := newTestWorker(t, proc, pub)

	if err := w.handleItem(context.Background(), validDelivery()); err != nil {
		t.Fatalf("expected ack, got %v", err)
	}

	if len(proc.items) != 1 {
		t.Fatalf("expected 1 processed item, got %d", len(proc.items))
	}
	item := proc.items[0]
	if item.ID != "msg-1" || item.CPR != "0101101234" || *item.ContractorID != "123456" {
		t.Errorf("unexpected item %+v", item)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.ItemID != "msg-1" || ev.Outcome != string(domain.OutcomeSucceeded) || ev.Error != "" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.DurationMS != 1500 {
		t.Errorf("expected duration 1500ms, got %d", ev.DurationMS)
	}
}

func TestHandleItem_BusinessFailureIsAcked(t *testing.T) {
	proc := &fakeProcessor{err: domain.NewBusinessError("1G", "Ydernummer findes ikke")}
	pub := &fakePublisher{}
	w := newTestWorker(t, proc, pub)

	if err := w.handleItem(context.Background(), validDelivery()); err != nil {
		t.Fatalf("expected ack for business failure, got %v", err)
	}

	ev := pub.events[0]
	if ev.Outcome != string(domain.OutcomeBusinessFailed) || ev.Code != "1G" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.FailedPhase != string(orchestrator.PhaseInitChecks) {
		t.Errorf("expected failed phase, got %q", ev.FailedPhase)
	}
}

func TestHandleItem_TechnicalFailureIsRejected(t *testing.T) {
	proc := &fakeProcessor{err: domain.NewTechnicalError("portal crashed", errors.New("boom"))}
	w := newTestWorker(t, proc, &fakePublisher{})

	err := w.handleItem(context.Background(), validDelivery())
	if !errors.Is(err, ErrItemFailed) {
		t.Fatalf("expected ErrItemFailed, got %v", err)
	}
	// В DLQ, а не обратно в очередь
	if domain.IsTransient(err) {
		t.Error("technical failure should not be requeued")
	}
}

func TestHandleItem_TransientFailureIsRequeued(t *testing.T) {
	proc := &fakeProcessor{err: domain.NewTransientError("db unavailable", errors.New("conn refused"))}
	w := newTestWorker(t, proc, nil)

	err := w.handleItem(context.Background(), validDelivery())
	if !domain.IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestHandleItem_CanceledIsRequeued(t *testing.T) {
	proc := &fakeProcessor{err: fmt.Errorf("attach to edi portal: %w", context.Canceled)}
	w := newTestWorker(t, proc, nil)

	err := w.handleItem(context.Background(), validDelivery())
	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if errors.Is(err, ErrItemFailed) {
		t.Errorf("interrupted item must not be rejected, got %v", err)
	}
}

func TestHandleItem_ConsumerCancelDoesNotInterruptItem(t *testing.T) {
	proc := &fakeProcessor{}
	w := newTestWorker(t, proc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.handleItem(ctx, validDelivery()); err != nil {
		t.Fatalf("expected ack, got %v", err)
	}
	if proc.ctxErr != nil {
		t.Errorf("expected live item context, got %v", proc.ctxErr)
	}
}

func TestHandleItem_DrainTimeoutInterruptsItem(t *testing.T) {
	proc := &fakeProcessor{}
	w := newTestWorker(t, proc, nil)
	w.drainCancel()

	_ = w.handleItem(context.Background(), validDelivery())
	if !errors.Is(proc.ctxErr, context.Canceled) {
		t.Errorf("expected item context canceled after drain, got %v", proc.ctxErr)
	}
}

func TestNew_DefaultDrainTimeout(t *testing.T) {
	w := New(Config{LockPath: filepath.Join(t.TempDir(), "session.lock")})
	if w.drainTimeout != DefaultDrainTimeout {
		t.Errorf("expected %s, got %s", DefaultDrainTimeout, w.drainTimeout)
	}
}

func TestHandleItem_InvalidPayload(t *testing.T) {
	proc := &fakeProcessor{}
	w := newTestWorker(t, proc, nil)

	d := itemDelivery("x")
	d.Message.Payload = "not an object"

	err := w.handleItem(context.Background(), d)
	if !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error, got %s", domain.KindOf(err))
	}
	if len(proc.items) != 0 {
		t.Error("processor should not be called")
	}
}

func TestHandleItem_PublishErrorIgnored(t *testing.T) {
	w := newTestWorker(t, &fakeProcessor{}, &fakePublisher{err: errors.New("channel closed")})

	if err := w.handleItem(context.Background(), validDelivery()); err != nil {
		t.Errorf("publish error should not fail the item, got %v", err)
	}
}

func TestHandleItem_Stopped(t *testing.T) {
	proc := &fakeProcessor{}
	w := newTestWorker(t, proc, nil)
	w.Stop()

	err := w.handleItem(context.Background(), validDelivery())
	if !errors.Is(err, ErrWorkerStopped) || !domain.IsTransient(err) {
		t.Errorf("expected transient ErrWorkerStopped, got %v", err)
	}
	if len(proc.items) != 0 {
		t.Error("processor should not be called after stop")
	}
}

func TestRunOnce_SessionLock(t *testing.T) {
	lock := filepath.Join(t.TempDir(), "session.lock")
	first := New(Config{Processor: &fakeProcessor{}, LockPath: lock})
	second := New(Config{Processor: &fakeProcessor{}, LockPath: lock})

	if err := first.acquireLock(); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	_, err := second.RunOnce(context.Background(), &domain.WorkItem{ID: "1"})
	if !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("expected ErrSessionLocked, got %v", err)
	}

	first.releaseLock()

	res, err := second.RunOnce(context.Background(), &domain.WorkItem{ID: "1"})
	if err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
	if res.Outcome != domain.OutcomeSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", res.Outcome)
	}
}

func TestNew_DefaultLockPath(t *testing.T) {
	w := New(Config{})
	if filepath.Base(w.lockPath) != DefaultLockFile {
		t.Errorf("expected default lock file, got %s", w.lockPath)
	}
	if w.IsStopped() {
		t.Error("new worker should not be stopped")
	}
}
