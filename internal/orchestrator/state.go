package orchestrator

import (
	"time"

	"github.com/shaiso/discharge/internal/domain"
	"github.com/shaiso/discharge/internal/guard"
	"github.com/shaiso/discharge/internal/pipeline"
)

// Phase — этап обработки WorkItem.
type Phase string

const (
	PhaseValidate      Phase = "validate"
	PhaseSetupContext  Phase = "setup_context"
	PhaseReportRunning Phase = "report_running"
	PhaseOpenSession   Phase = "open_session"
	PhaseInitChecks    Phase = "initialization_checks"
	PhasePrepareAssets Phase = "prepare_assets"
	PhaseRunPipeline   Phase = "run_pipeline"
	PhaseFinalize      Phase = "finalize"
	PhaseReportOutcome Phase = "report_outcome"
	PhaseCleanup       Phase = "cleanup"
)

// Имена артефактов, которые создаются не больше одного раза.
const (
	ArtifactMedicalRecord = "medical_record"
	ArtifactReceipt       = "receipt"
	ArtifactAdminNote     = "administrative_note"
)

// ItemState — состояние обработки одного WorkItem.
//
// ItemState создаётся в начале Process и отбрасывается после Cleanup.
// Обработка последовательная, поэтому ItemState не защищён мьютексом.
type ItemState struct {
	// Item — обрабатываемый элемент.
	Item *domain.WorkItem

	// Context — состояние процесса в портале.
	Context *pipeline.Context

	// Run — статус шага на дашборде.
	Run *domain.StepRun

	// PrimaryClinic — клиника, где пациент наблюдается. nil, если не найдена.
	PrimaryClinic *domain.PrimaryClinic

	// ExternClinic — частная клиника из журнала пациента.
	ExternClinic *domain.ExternClinic

	// Pipeline — итог процесса в портале. nil, если процесс не запускался.
	Pipeline *pipeline.Result

	// Artifacts — итоги проверок перед созданием артефактов.
	Artifacts map[string]guard.Outcome

	phase     Phase
	completed []Phase
	started   time.Time

	// sessionOpened — приложение журнала открывалось и его нужно закрыть.
	sessionOpened bool
}

// NewItemState создаёт ItemState для элемента.
func NewItemState(item *domain.WorkItem, stepName string) *ItemState {
	return &ItemState{
		Item:      item,
		Run:       domain.NewStepRun(stepName),
		Artifacts: make(map[string]guard.Outcome),
		started:   time.Now(),
	}
}

// Enter отмечает начало этапа. Предыдущий этап считается завершённым.
func (s *ItemState) Enter(phase Phase) {
	if s.phase != "" {
		s.completed = append(s.completed, s.phase)
	}
	s.phase = phase
}

// Phase возвращает текущий этап.
func (s *ItemState) Phase() Phase {
	return s.phase
}

// Completed возвращает завершённые этапы по порядку.
func (s *ItemState) Completed() []Phase {
	out := make([]Phase, len(s.completed))
	copy(out, s.completed)
	return out
}

// Elapsed возвращает время с начала обработки.
func (s *ItemState) Elapsed() time.Duration {
	return time.Since(s.started)
}

// Result — итог обработки WorkItem.
type Result struct {
	Outcome domain.Outcome

	// FailedPhase — этап, на котором произошла ошибка. Пусто при успехе.
	FailedPhase Phase

	// Phases — пройденные этапы.
	Phases []Phase

	// Pipeline — итог процесса в портале.
	Pipeline *pipeline.Result

	// ReceiptPath — квитанция об отправке.
	ReceiptPath string

	// Artifacts — итоги проверок перед созданием артефактов.
	Artifacts map[string]guard.Outcome

	Duration time.Duration
}

// result собирает Result после Cleanup.
func (s *ItemState) result(err error, failed Phase) *Result {
	s.Enter("")
	r := &Result{
		Outcome:   domain.OutcomeFor(err),
		Phases:    s.Completed(),
		Pipeline:  s.Pipeline,
		Artifacts: s.Artifacts,
		Duration:  s.Elapsed(),
	}
	if err != nil {
		r.FailedPhase = failed
	}
	if s.Context != nil {
		r.ReceiptPath = s.Context.ReceiptPath
	}
	return r
}
