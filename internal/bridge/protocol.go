package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Методы агента.
const (
	MethodOpenPatient                 = "app.open_patient"
	MethodCreateDocument              = "app.create_document"
	MethodCreateJournalNote           = "app.create_journal_note"
	MethodCreateDigitalPrintedJournal = "app.create_digital_printed_journal"
	MethodOpenEDIPortal               = "app.open_edi_portal"
	MethodCloseEDIPortal              = "app.close_edi_portal"
	MethodClosePatientWindow          = "app.close_patient_window"
	MethodClose                       = "app.close"
	MethodHardClose                   = "process.hard_close"
)

var (
	// ErrNotConnected — не удалось подключиться к агенту.
	ErrNotConnected = errors.New("agent not connected")

	// ErrTransport — соединение с агентом оборвалось во время вызова.
	ErrTransport = errors.New("agent transport error")
)

// Request — запрос к агенту.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response — ответ агента. Ровно одно из Result и Error задано.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// RemoteError — ошибка, которую вернул агент.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Method — вызванный метод. Заполняется клиентом.
	Method string `json:"-"`
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("agent %s: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("agent %s: %s (%s)", e.Method, e.Message, e.Code)
}
