package pipeline

import "context"

// Kind — вид шага.
type Kind string

const (
	// KindGate — условие: может пропустить оставшиеся основные шаги.
	KindGate Kind = "gate"

	// KindAction — действие во внешней системе.
	KindAction Kind = "action"

	// KindQuery — чтение данных во внешней системе.
	KindQuery Kind = "query"
)

// Signal — результат шага для исполнителя.
type Signal int

const (
	// Continue — перейти к следующему шагу.
	Continue Signal = iota

	// SkipRemaining — пропустить оставшиеся основные шаги.
	// Учитывается только для шагов KindGate.
	SkipRemaining
)

// String возвращает имя сигнала для логов.
func (s Signal) String() string {
	if s == SkipRemaining {
		return "skip_remaining"
	}
	return "continue"
}

// Step — один шаг процесса.
type Step interface {
	// Name возвращает имя шага для логов, метрик и ошибок.
	Name() string

	// Kind возвращает вид шага.
	Kind() Kind

	// Run выполняет шаг.
	Run(ctx context.Context, pc *Context) (Signal, error)
}

// StepFunc — функция шага.
type StepFunc func(ctx context.Context, pc *Context) (Signal, error)

type funcStep struct {
	name string
	kind Kind
	fn   StepFunc
}

func (s *funcStep) Name() string { return s.name }
func (s *funcStep) Kind() Kind   { return s.kind }

func (s *funcStep) Run(ctx context.Context, pc *Context) (Signal, error) {
	return s.fn(ctx, pc)
}

// New создаёт шаг из функции.
func New(name string, kind Kind, fn StepFunc) Step {
	return &funcStep{name: name, kind: kind, fn: fn}
}

// Gate создаёт шаг-условие. Если fn возвращает true, оставшиеся
// основные шаги пропускаются.
func Gate(name string, fn func(ctx context.Context, pc *Context) (bool, error)) Step {
	return New(name, KindGate, func(ctx context.Context, pc *Context) (Signal, error) {
		skip, err := fn(ctx, pc)
		if err != nil {
			return Continue, err
		}
		if skip {
			return SkipRemaining, nil
		}
		return Continue, nil
	})
}

// Action создаёт шаг-действие.
func Action(name string, fn func(ctx context.Context, pc *Context) error) Step {
	return New(name, KindAction, func(ctx context.Context, pc *Context) (Signal, error) {
		return Continue, fn(ctx, pc)
	})
}

// Query создаёт шаг чтения.
func Query(name string, fn func(ctx context.Context, pc *Context) error) Step {
	return New(name, KindQuery, func(ctx context.Context, pc *Context) (Signal, error) {
		return Continue, fn(ctx, pc)
	})
}
