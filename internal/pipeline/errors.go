package pipeline

import "fmt"

// Phase — фаза исполнителя, в которой выполнялся шаг.
type Phase string

const (
	// PhaseMain — основные шаги.
	PhaseMain Phase = "main"

	// PhaseTail — завершающие шаги, выполняются всегда.
	PhaseTail Phase = "tail"
)

// StepError — ошибка шага с контекстом.
//
// Класс исходной ошибки (domain.Kind) сохраняется в цепочке.
type StepError struct {
	Step  string // имя шага
	Phase Phase  // фаза
	Err   error  // ошибка шага
}

// Error реализует интерфейс error.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s) failed: %v", e.Step, e.Phase, e.Err)
}

// Unwrap возвращает ошибку шага.
func (e *StepError) Unwrap() error {
	return e.Err
}
