package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/discharge/internal/assets"
	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/edi"
	"github.com/shaiso/discharge/internal/guard"
	"github.com/shaiso/discharge/internal/pipeline"
	"github.com/shaiso/discharge/internal/repo"
	"github.com/shaiso/discharge/internal/retry"
	"github.com/shaiso/discharge/internal/session"
	"github.com/shaiso/discharge/internal/telemetry"
)

// Значения конфигурации по умолчанию.
const (
	DefaultStepName        = "Udskrivning 22 år"
	DefaultPortalOpenDelay = 5 * time.Second

	// MedicalRecordDescription — описание документа «Printet journal»
	// для поиска в журнале.
	MedicalRecordDescription = "%Printet journal%(delvis kopi)%"
)

// ClinicSource — данные клиник пациента.
type ClinicSource interface {
	PrimaryClinic(ctx context.Context, cpr string) (*domain.PrimaryClinic, error)
	ExternClinic(ctx context.Context, cpr string) (*domain.ExternClinic, error)
}

// JournalSource — поиск записей в журнале.
type JournalSource interface {
	List(ctx context.Context, q *repo.Query) ([]domain.JournalNote, error)
}

// DocumentCounter — подсчёт документов в журнале.
type DocumentCounter interface {
	Count(ctx context.Context, q *repo.Query) (int, error)
}

// ConstantSource — служебные таблицы робота.
type ConstantSource interface {
	Constant(ctx context.Context, name string) (string, error)
	ExceptionMessage(ctx context.Context, code string) (string, error)
}

// Portal — процесс в портале EDI.
type Portal interface {
	CheckContractor(ctx context.Context, r domain.Recipient) (edi.ContractorCheck, error)
	Steps() (main, tail []pipeline.Step)
}

// Browser — подключение к окну портала.
type Browser interface {
	Attach(ctx context.Context) error
	Detach()
}

// Reporter — отправка статуса на дашборд.
type Reporter interface {
	ReportStepStatus(ctx context.Context, cpr string, run *domain.StepRun) error
}

// Texts — тексты журнала, которые ищет и создаёт процесс.
type Texts struct {
	// JournalContinuation — текст, по которому находится административная
	// запись для частной клиники.
	JournalContinuation string

	// AdminNote — административная запись о выписке.
	AdminNote string

	// AdminNoteLookup — фрагмент AdminNote для проверки, создана ли запись.
	AdminNoteLookup string

	// PhoneNotSet — сообщение, если у частной клиники нет телефона.
	PhoneNotSet string
}

// Config — конфигурация Orchestrator.
type Config struct {
	App       session.App
	Clinics   ClinicSource
	Journal   JournalSource
	Documents DocumentCounter
	Constants ConstantSource

	Portal  Portal
	Browser Browser

	Stager    *assets.Stager
	Images    assets.ImageSource // nil — снимки не отправляются
	Workspace assets.Workspace

	Guard    *guard.Guard
	Reporter Reporter // nil — статус не отправляется

	Retry retry.Policy
	Texts Texts

	// StepName — имя шага на дашборде (default: DefaultStepName).
	StepName string

	// PortalOpenDelay — пауза после открытия портала (default: 5s).
	// Отрицательное значение — без паузы.
	PortalOpenDelay time.Duration

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Orchestrator обрабатывает один WorkItem от проверки входных данных до
// очистки рабочих папок.
//
// Этапы выполняются строго по порядку:
//
//	Validate → SetupContext → ReportRunning → OpenSession →
//	InitializationChecks → PrepareAssets → RunPipeline → Finalize →
//	ReportOutcome → Cleanup
//
// Cleanup выполняется на любом пути выхода.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
	sleep  func(ctx context.Context, d time.Duration) error
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.StepName == "" {
		cfg.StepName = DefaultStepName
	}
	if cfg.PortalOpenDelay < 0 {
		cfg.PortalOpenDelay = 0
	} else if cfg.PortalOpenDelay == 0 {
		cfg.PortalOpenDelay = DefaultPortalOpenDelay
	}
	if cfg.Texts.PhoneNotSet == "" {
		cfg.Texts.PhoneNotSet = defaultPhoneNotSetMessage
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	return &Orchestrator{
		cfg:    cfg,
		logger: logger.With("component", "orchestrator"),
		tracer: tracer,
		sleep:  sleepCtx,
	}
}

// Process обрабатывает WorkItem.
//
// Ошибка несёт класс из domain.Kind: бизнес-ошибку можно исправить и
// перезапустить элемент с дашборда, остальные требуют оператора.
// Result возвращается всегда, в том числе вместе с ошибкой.
func (o *Orchestrator) Process(ctx context.Context, item *domain.WorkItem) (*Result, error) {
	logger := telemetry.WithCorrelationID(telemetry.WithItemID(o.logger, item.ID), item.CorrelationID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	ctx, span := o.tracer.Start(ctx, "process_item", trace.WithAttributes(
		attribute.String("item_id", item.ID),
		attribute.String("correlation_id", item.CorrelationID.String()),
	))
	defer span.End()

	state := NewItemState(item, o.cfg.StepName)
	logger.Info("processing work item", "cpr", telemetry.MaskCPR(item.CPR))

	err := o.run(ctx, state, logger)
	failed := state.Phase()
	if err != nil && ctx.Err() != nil && domain.KindOf(err) != domain.KindBusinessRule {
		err = domain.NewTransientError("processing interrupted", err)
	}

	// Итог отправляется и после отмены ctx.
	reportCtx := context.WithoutCancel(ctx)

	state.Enter(PhaseReportOutcome)
	switch {
	case err == nil:
		state.Run.MarkSucceeded()
		o.report(reportCtx, state, logger)
	case domain.IsTransient(err):
		// Элемент вернётся в очередь, на дашборде остаётся RUNNING.
		logger.Warn("processing interrupted, outcome not reported", "phase", failed)
	default:
		state.Run.MarkFailed(err, item.ID)
		o.report(reportCtx, state, logger)
	}

	state.Enter(PhaseCleanup)
	o.cleanup(ctx, state, logger)

	res := state.result(err, failed)
	telemetry.ItemsProcessed.WithLabelValues(string(res.Outcome)).Inc()
	telemetry.ItemDuration.Observe(res.Duration.Seconds())
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("work item failed",
			"phase", failed,
			"kind", domain.KindOf(err).String(),
			"outcome", res.Outcome,
			"error", err,
		)
		return res, err
	}

	logger.Info("work item processed", "duration", res.Duration)
	return res, nil
}

// run выполняет этапы до ReportOutcome.
func (o *Orchestrator) run(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	item := state.Item

	state.Enter(PhaseValidate)
	if err := item.Validate(); err != nil {
		return err
	}

	state.Enter(PhaseSetupContext)
	state.Context = pipeline.NewContext(item, domain.ResolveRecipient(domain.ExternClinic{
		ContractorID: *item.ContractorID,
		PhoneNumber:  *item.PhoneNumber,
	}))

	state.Enter(PhaseReportRunning)
	state.Run.MarkRunning()
	o.report(ctx, state, logger)

	state.Enter(PhaseOpenSession)
	if err := o.openSession(ctx, state, logger); err != nil {
		return err
	}

	state.Enter(PhaseInitChecks)
	if err := o.initializationChecks(ctx, state, logger); err != nil {
		return err
	}

	state.Enter(PhasePrepareAssets)
	if err := o.prepareAssets(ctx, state, logger); err != nil {
		return err
	}

	state.Enter(PhaseRunPipeline)
	if err := o.runPipeline(ctx, state, logger); err != nil {
		return err
	}

	state.Enter(PhaseFinalize)
	return o.finalize(ctx, state, logger)
}

// openSession закрывает оставшиеся процессы и открывает карту пациента.
func (o *Orchestrator) openSession(ctx context.Context, state *ItemState, logger *slog.Logger) error {
	for _, process := range []string{session.ProcessAcrobat, session.ProcessEdge} {
		if err := o.cfg.App.HardClose(ctx, process); err != nil {
			logger.Warn("failed to close process", "process", process, "error", err)
		}
	}

	state.sessionOpened = true
	logger.Info("opening patient")
	if err := o.cfg.App.OpenPatient(ctx, state.Item.CPR); err != nil {
		return fmt.Errorf("open patient: %w", err)
	}
	return nil
}

// report отправляет статус на дашборд. Ошибки только логируются.
func (o *Orchestrator) report(ctx context.Context, state *ItemState, logger *slog.Logger) {
	if o.cfg.Reporter == nil {
		return
	}
	if state.Item.CPR == "" {
		logger.Warn("dashboard status not reported, cpr is empty", "status", state.Run.Status)
		return
	}
	if err := o.cfg.Reporter.ReportStepStatus(ctx, state.Item.CPR, state.Run); err != nil {
		logger.Error("failed to report dashboard status", "status", state.Run.Status, "error", err)
		return
	}
	if state.Run.Status.IsTerminal() {
		logger.Info("dashboard step finished", "status", state.Run.Status, "duration", state.Run.Duration())
		return
	}
	logger.Debug("dashboard status reported", "status", state.Run.Status)
}

// cleanup закрывает карту пациента и приложение и очищает рабочие папки.
func (o *Orchestrator) cleanup(ctx context.Context, state *ItemState, logger *slog.Logger) {
	// Закрытие выполняется и после отмены ctx.
	ctx = context.WithoutCancel(ctx)

	if state.sessionOpened {
		if err := o.cfg.App.ClosePatientWindow(ctx); err != nil {
			logger.Warn("failed to close patient window", "error", err)
		}
		if err := o.cfg.App.Close(ctx); err != nil {
			logger.Warn("failed to close application", "error", err)
		}
	}

	ws := o.cfg.Workspace
	if ws.Logger == nil {
		ws.Logger = logger
	}
	if err := ws.Clean(); err != nil {
		logger.Warn("failed to clean workspace", "error", err)
	}
}

// sleepCtx ждёт d или отмены ctx.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isNotFound проверяет ErrNotFound репозитория.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}
