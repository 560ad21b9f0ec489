package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/mq"
	"github.com/shaiso/discharge/internal/orchestrator"
)

// DefaultLockFile — файл блокировки сессии приложения по умолчанию.
const DefaultLockFile = "discharge-session.lock"

// DefaultDrainTimeout — сколько Stop ждёт текущий элемент по умолчанию.
const DefaultDrainTimeout = 10 * time.Minute

// Processor обрабатывает один элемент очереди.
type Processor interface {
	Process(ctx context.Context, item *domain.WorkItem) (*orchestrator.Result, error)
}

// EventPublisher публикует итог обработки.
type EventPublisher interface {
	PublishItemCompleted(ctx context.Context, payload mq.ItemCompletedPayload) error
}

// Worker потребляет элементы из очереди discharge.items и обрабатывает
// их по одному.
//
// Приложение журнала и браузер — ресурсы рабочей станции, поэтому на
// хосте работает один воркер: это обеспечивает файловая блокировка.
type Worker struct {
	processor Processor
	publisher EventPublisher
	conn      *mq.Connection

	consumer *mq.Consumer

	lockPath string
	lock     *flock.Flock

	// processing — сериализует обработку элементов.
	processing sync.Mutex

	// drainCtx отменяется, когда Stop перестаёт ждать текущий элемент.
	drainCtx     context.Context
	drainCancel  context.CancelFunc
	drainTimeout time.Duration

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Processor Processor
	Publisher EventPublisher // nil — события не публикуются
	Conn      *mq.Connection

	// LockPath — файл блокировки сессии
	// (default: DefaultLockFile во временной папке ОС).
	LockPath string

	// DrainTimeout — ожидание текущего элемента при Stop
	// (default: DefaultDrainTimeout).
	DrainTimeout time.Duration

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	lockPath := cfg.LockPath
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), DefaultLockFile)
	}

	drainTimeout := cfg.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	drainCtx, drainCancel := context.WithCancel(context.Background())

	return &Worker{
		processor:    cfg.Processor,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
		drainCtx:     drainCtx,
		drainCancel:  drainCancel,
		drainTimeout: drainTimeout,
		logger:       logger.With("component", "worker"),
	}
}

// Start захватывает блокировку сессии и запускает consumer.
//
// Если блокировку держит другой процесс, возвращает ErrSessionLocked.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.acquireLock(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueItems),
		Handler:  w.handleItem,
		Prefetch: 1,
		Requeue:  domain.IsTransient,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("item consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started", "queue", mq.QueueItems, "lock", w.lockPath)
	return nil
}

// Stop останавливает consumer, дожидается текущего элемента и
// освобождает блокировку. Элемент, не завершившийся за DrainTimeout,
// прерывается и возвращается в очередь.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	drain := time.AfterFunc(w.drainTimeout, func() {
		w.logger.Warn("drain timeout exceeded, interrupting current item", "timeout", w.drainTimeout)
		w.drainCancel()
	})
	w.wg.Wait()
	drain.Stop()
	w.drainCancel()

	w.releaseLock()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// RunOnce обрабатывает один элемент без очереди: захватывает блокировку,
// обрабатывает элемент и освобождает блокировку.
func (w *Worker) RunOnce(ctx context.Context, item *domain.WorkItem) (*orchestrator.Result, error) {
	if err := w.acquireLock(); err != nil {
		return nil, err
	}
	defer w.releaseLock()

	return w.process(ctx, item)
}

func (w *Worker) acquireLock() error {
	if err := os.MkdirAll(filepath.Dir(w.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionLocked, w.lockPath)
	}
	return nil
}

func (w *Worker) releaseLock() {
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release session lock", "error", err)
	}
}
