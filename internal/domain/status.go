package domain

// StepStatus — статус шага процесса на дашборде.
//
// Жизненный цикл:
//
//	RUNNING → SUCCESS
//	        ↘ FAILED
type StepStatus string

const (
	// StepStatusRunning — шаг выполняется роботом.
	StepStatusRunning StepStatus = "running"

	// StepStatusSuccess — шаг успешно завершён.
	StepStatusSuccess StepStatus = "success"

	// StepStatusFailed — шаг завершился с ошибкой.
	StepStatusFailed StepStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSuccess, StepStatusFailed:
		return true
	default:
		return false
	}
}

// Outcome — итог обработки одного WorkItem.
type Outcome string

const (
	// OutcomeSucceeded — весь процесс выполнен (или уже был выполнен ранее).
	OutcomeSucceeded Outcome = "SUCCEEDED"

	// OutcomeBusinessFailed — нарушено бизнес-правило, элемент можно перезапустить
	// после исправления данных.
	OutcomeBusinessFailed Outcome = "BUSINESS_FAILED"

	// OutcomeTechnicalFailed — техническая ошибка, требуется внимание оператора.
	OutcomeTechnicalFailed Outcome = "TECHNICAL_FAILED"

	// OutcomeInterrupted — обработка прервана (остановка воркера, временный
	// сбой), элемент возвращается в очередь.
	OutcomeInterrupted Outcome = "INTERRUPTED"
)

// OutcomeFor возвращает итог для ошибки обработки.
func OutcomeFor(err error) Outcome {
	if err == nil {
		return OutcomeSucceeded
	}
	switch KindOf(err) {
	case KindBusinessRule:
		return OutcomeBusinessFailed
	case KindTransient:
		return OutcomeInterrupted
	default:
		return OutcomeTechnicalFailed
	}
}
