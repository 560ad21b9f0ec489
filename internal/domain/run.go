package domain

import (
	"time"
)

// StepRun — состояние шага процесса, которое отправляется на дашборд.
//
// StepRun создаётся оркестратором в начале обработки WorkItem и
// обновляется при каждом переходе статуса.
type StepRun struct {
	// StepName — имя шага на дашборде.
	StepName string `json:"step_name"`

	// Status — текущий статус.
	Status StepStatus `json:"status"`

	// StartedAt — время начала обработки.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Failure — описание ошибки, если Status == failed.
	Failure *Failure `json:"failure,omitempty"`

	// RerunItemID — ID элемента очереди для повторного запуска.
	// Заполняется только для бизнес-ошибок.
	RerunItemID string `json:"rerun_item_id,omitempty"`
}

// Failure — структурированное описание ошибки для конечного пользователя.
type Failure struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Сообщение для технических ошибок: пользователь ничего не может исправить сам.
const (
	TechnicalFailureMessage = "Processen er fejlet"
	TechnicalFailureCode    = "Digitalisering er i gang med at undersøge fejlen og genstarte processen.\n\n" +
		"Kontakt Digitalisering, hvis fejlen ikke er rettet efter 2 arbejdsdage."
)

// NewStepRun создаёт StepRun для шага.
func NewStepRun(stepName string) *StepRun {
	return &StepRun{StepName: stepName}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если шаг ещё не завершён.
func (r *StepRun) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// MarkRunning переводит шаг в статус running.
func (r *StepRun) MarkRunning() {
	now := time.Now()
	r.Status = StepStatusRunning
	r.StartedAt = &now
	r.FinishedAt = nil
	r.Failure = nil
	r.RerunItemID = ""
}

// MarkSucceeded переводит шаг в статус success.
func (r *StepRun) MarkSucceeded() {
	now := time.Now()
	r.Status = StepStatusSuccess
	r.FinishedAt = &now
}

// MarkFailed переводит шаг в статус failed.
//
// Бизнес-ошибка несёт код и сообщение для пользователя и помечает элемент
// как перезапускаемый. Любая другая ошибка получает общее сообщение.
func (r *StepRun) MarkFailed(err error, itemID string) {
	now := time.Now()
	r.Status = StepStatusFailed
	r.FinishedAt = &now

	var de *Error
	if AsError(err, &de) && de.Kind == KindBusinessRule {
		r.Failure = &Failure{Code: de.Code, Message: de.Message}
		r.RerunItemID = itemID
		return
	}

	r.Failure = &Failure{Code: TechnicalFailureCode, Message: TechnicalFailureMessage}
	r.RerunItemID = ""
}
