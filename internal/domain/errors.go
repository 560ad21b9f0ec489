package domain

import (
	"errors"
	"fmt"
)

// Kind — класс ошибки обработки WorkItem.
//
// Класс определяется в месте возникновения ошибки и читается один раз
// на границе оркестратора, чтобы выбрать отчёт для дашборда и судьбу
// сообщения в очереди.
type Kind int

const (
	// KindTechnical — неожиданная ошибка, перезапуск без участия оператора
	// невозможен.
	KindTechnical Kind = iota

	// KindValidation — входные данные WorkItem некорректны.
	KindValidation

	// KindBusinessRule — нарушено бизнес-правило (нет договора клиники,
	// не совпадает телефон). Пользователь может исправить данные и
	// перезапустить элемент.
	KindBusinessRule

	// KindTransient — временная ошибка инфраструктуры (соединение с БД).
	KindTransient

	// KindSyncTimeout — элемент интерфейса не появился (или не исчез)
	// за отведённое время.
	KindSyncTimeout
)

// String возвращает имя класса для логов и метрик.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindTransient:
		return "transient"
	case KindSyncTimeout:
		return "sync_timeout"
	default:
		return "technical"
	}
}

// Базовые ошибки домена.
var (
	// ErrSyncTimeout — ожидание элемента интерфейса превысило таймаут.
	ErrSyncTimeout = errors.New("synchronization timeout")

	// ErrInvalidCPR — CPR-номер не соответствует формату DDMMYYSSSS.
	ErrInvalidCPR = errors.New("invalid cpr number")

	// ErrMissingField — в WorkItem отсутствует обязательное поле.
	ErrMissingField = errors.New("missing required field")
)

// Error — ошибка обработки с классом, кодом и сообщением для пользователя.
type Error struct {
	Kind    Kind   // класс ошибки
	Code    string // бизнес-код (1G, 1H), пусто для остальных классов
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap возвращает базовую ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт ошибку валидации входных данных.
func NewValidationError(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// NewBusinessError создаёт ошибку бизнес-правила с кодом для дашборда.
func NewBusinessError(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

// NewTransientError помечает ошибку инфраструктуры как временную.
func NewTransientError(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// NewSyncTimeoutError создаёт ошибку таймаута синхронизации для цели target.
func NewSyncTimeoutError(target string) *Error {
	return &Error{
		Kind:    KindSyncTimeout,
		Message: fmt.Sprintf("waiting for %q", target),
		Err:     ErrSyncTimeout,
	}
}

// NewTechnicalError создаёт техническую ошибку.
func NewTechnicalError(message string, err error) *Error {
	return &Error{Kind: KindTechnical, Message: message, Err: err}
}

// AsError — обёртка над errors.As для *Error.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
}

// KindOf возвращает класс первой *Error в цепочке.
// Ошибки без класса считаются техническими.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTechnical
}

// IsTransient возвращает true, если ошибка временная.
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

// IsSyncTimeout возвращает true, если ошибка вызвана таймаутом синхронизации.
func IsSyncTimeout(err error) bool {
	return errors.Is(err, ErrSyncTimeout)
}
