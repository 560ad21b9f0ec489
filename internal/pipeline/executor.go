package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/discharge/internal/telemetry"
)

// State — состояние исполнителя.
//
// Переходы:
//
//	RUNNING_MAIN → SKIPPING_MAIN → RUNNING_TAIL → DONE
//	             ↘ RUNNING_TAIL                 ↘ FAILED
//	             ↘ FAILED
type State string

const (
	StateRunningMain  State = "RUNNING_MAIN"
	StateSkippingMain State = "SKIPPING_MAIN"
	StateRunningTail  State = "RUNNING_TAIL"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Result — итог выполнения.
type Result struct {
	// State — финальное состояние (DONE или FAILED).
	State State

	// Executed — имена выполненных шагов по порядку.
	Executed []string

	// Skipped — имена пропущенных основных шагов.
	Skipped []string

	// SkippedBy — имя шага-условия, пропустившего основные шаги.
	SkippedBy string
}

// Config — конфигурация Executor.
type Config struct {
	// Main — основные шаги.
	Main []Step

	// Tail — завершающие шаги. Выполняются после основных шагов,
	// даже если те были пропущены условием.
	Tail []Step

	Logger *slog.Logger

	// Tracer — трейсер для спанов шагов. nil — telemetry.Tracer().
	Tracer trace.Tracer
}

// Executor выполняет шаги процесса по порядку.
type Executor struct {
	main   []Step
	tail   []Step
	logger *slog.Logger
	tracer trace.Tracer
}

// NewExecutor создаёт Executor.
func NewExecutor(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	return &Executor{
		main:   cfg.Main,
		tail:   cfg.Tail,
		logger: logger.With("component", "pipeline"),
		tracer: tracer,
	}
}

// Run выполняет основные шаги, затем завершающие.
//
// Ошибка основного шага останавливает выполнение: завершающие шаги не
// выполняются. Шаг-условие, вернувший SkipRemaining, пропускает
// оставшиеся основные шаги. Ошибка завершающего шага возвращается сразу.
// Ошибки оборачиваются в *StepError.
func (e *Executor) Run(ctx context.Context, pc *Context) (*Result, error) {
	result := &Result{}
	state := StateRunningMain

	for _, step := range e.main {
		if state == StateSkippingMain {
			e.logger.Info("skipping step due to earlier condition", "step", step.Name())
			result.Skipped = append(result.Skipped, step.Name())
			continue
		}

		signal, err := e.runStep(ctx, step, PhaseMain, pc)
		if err != nil {
			result.State = StateFailed
			return result, &StepError{Step: step.Name(), Phase: PhaseMain, Err: err}
		}
		result.Executed = append(result.Executed, step.Name())

		if signal == SkipRemaining {
			if step.Kind() != KindGate {
				e.logger.Warn("only gate steps may skip, continuing", "step", step.Name(), "kind", step.Kind())
				continue
			}
			e.logger.Info("gate returned skip, skipping remaining main steps", "step", step.Name())
			result.SkippedBy = step.Name()
			state = StateSkippingMain
		}
	}

	e.logger.Debug("running tail steps", "state", StateRunningTail, "count", len(e.tail))

	for _, step := range e.tail {
		if _, err := e.runStep(ctx, step, PhaseTail, pc); err != nil {
			result.State = StateFailed
			return result, &StepError{Step: step.Name(), Phase: PhaseTail, Err: err}
		}
		result.Executed = append(result.Executed, step.Name())
	}

	result.State = StateDone
	return result, nil
}

// runStep выполняет один шаг в спане и замеряет время.
func (e *Executor) runStep(ctx context.Context, step Step, phase Phase, pc *Context) (Signal, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.step",
		trace.WithAttributes(
			attribute.String("pipeline.step", step.Name()),
			attribute.String("pipeline.kind", string(step.Kind())),
			attribute.String("pipeline.phase", string(phase)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	logger := telemetry.WithStep(e.logger, step.Name())
	logger.Debug("step started", "phase", phase)

	start := time.Now()
	signal, err := step.Run(ctx, pc)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		telemetry.StepDuration.WithLabelValues(step.Name(), "error").Observe(elapsed.Seconds())
		logger.Error("step failed", "phase", phase, "duration", elapsed, "error", err)
		return signal, err
	}

	span.SetStatus(codes.Ok, "")
	telemetry.StepDuration.WithLabelValues(step.Name(), "ok").Observe(elapsed.Seconds())
	logger.Info("step completed", "phase", phase, "signal", signal.String(), "duration", elapsed)
	return signal, nil
}
