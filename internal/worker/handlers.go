package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/mq"
	"github.com/shaiso/discharge/internal/orchestrator"
)

// handleItem обрабатывает сообщение из очереди discharge.items.
//
// Успех и бизнес-ошибка подтверждаются: бизнес-ошибку исправляют в
// журнале и перезапускают с дашборда. Некорректное сообщение и
// техническая ошибка отклоняются в DLQ. Прерванная обработка
// возвращается в очередь.
func (w *Worker) handleItem(ctx context.Context, delivery *mq.Delivery) error {
	if w.IsStopped() {
		return domain.NewTransientError("worker is stopping", ErrWorkerStopped)
	}

	item, err := parseItem(&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse work item", "message_id", delivery.Message.ID, "error", err)
		return err
	}

	w.logger.Debug("received item.ready event", "item_id", item.ID)

	ictx, cancel := w.itemContext(ctx)
	defer cancel()

	res, err := w.process(ictx, item)
	if err == nil || domain.KindOf(err) == domain.KindBusinessRule {
		return nil
	}
	if domain.IsTransient(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTransientError("item processing interrupted", err)
	}
	return fmt.Errorf("%w: %s: %w", ErrItemFailed, res.Outcome, err)
}

// itemContext отвязывает обработку элемента от отмены consumer: Stop
// дожидается элемента и прерывает его только по drainCtx.
func (w *Worker) itemContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ictx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(w.drainCtx, cancel)
	return ictx, func() {
		stop()
		cancel()
	}
}

// process обрабатывает элемент и публикует итог.
func (w *Worker) process(ctx context.Context, item *domain.WorkItem) (*orchestrator.Result, error) {
	w.processing.Lock()
	defer w.processing.Unlock()

	res, err := w.processor.Process(ctx, item)
	if res == nil {
		res = &orchestrator.Result{Outcome: domain.OutcomeFor(err)}
	}
	w.publishCompletion(ctx, item, res, err)
	return res, err
}

// publishCompletion публикует событие item.completed. Ошибка публикации
// только логируется.
func (w *Worker) publishCompletion(ctx context.Context, item *domain.WorkItem, res *orchestrator.Result, procErr error) {
	if w.publisher == nil {
		return
	}

	payload := mq.ItemCompletedPayload{
		ItemID:        item.ID,
		CorrelationID: item.CorrelationID,
		Outcome:       string(res.Outcome),
		FailedPhase:   string(res.FailedPhase),
		DurationMS:    res.Duration.Milliseconds(),
	}
	if procErr != nil {
		payload.Error = procErr.Error()
		var de *domain.Error
		if domain.AsError(procErr, &de) {
			payload.Code = de.Code
		}
	}

	if err := w.publisher.PublishItemCompleted(context.WithoutCancel(ctx), payload); err != nil {
		w.logger.Warn("failed to publish item.completed", "item_id", item.ID, "error", err)
	}
}

// parseItem извлекает WorkItem из сообщения. ID сообщения становится
// ID элемента.
func parseItem(msg *mq.Message) (*domain.WorkItem, error) {
	raw, err := mq.ParsePayload[json.RawMessage](msg)
	if err != nil {
		return nil, domain.NewValidationError("parse payload", fmt.Errorf("%w: %w", ErrInvalidItem, err))
	}
	item, err := domain.ParseWorkItem(raw, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	return item, nil
}
