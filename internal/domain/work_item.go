package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkItem — элемент очереди: один пациент, которого нужно выписать
// в частную клинику.
//
// WorkItem приходит из очереди в виде JSON, проверяется Validate и
// отбрасывается после завершения обработки.
type WorkItem struct {
	// ID — идентификатор элемента очереди. Используется для повторного
	// запуска с дашборда.
	ID string `json:"id"`

	// CorrelationID — сквозной ID обработки для логов и событий.
	CorrelationID uuid.UUID `json:"correlation_id"`

	// CPR — персональный номер пациента (DDMMYYSSSS).
	CPR string `json:"cpr"`

	// PatientName — отображаемое имя пациента.
	PatientName string `json:"name"`

	// ContractorID — номер договора (ydernummer) новой клиники.
	// nil означает, что поле отсутствует во входных данных.
	ContractorID *string `json:"new_clinic_ydernummer"`

	// PhoneNumber — телефон новой клиники.
	// nil означает, что поле отсутствует во входных данных.
	PhoneNumber *string `json:"new_clinic_phone_number"`

	// DentalPlan — у пациента есть план лечения, который нужно передать.
	DentalPlan bool `json:"tandplejeplan"`

	// ExaminationDate — дата последнего осмотра в формате YYYY-MM-DD.
	ExaminationDate string `json:"dateOfExamination,omitempty"`

	// UnknownDate — дата осмотра неизвестна.
	UnknownDate bool `json:"ukendt_dato"`
}

// ParseWorkItem разбирает WorkItem из JSON и присваивает ID элемента очереди.
//
// Если CorrelationID не задан, генерируется новый.
func ParseWorkItem(data []byte, itemID string) (*WorkItem, error) {
	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, NewValidationError("decode work item", err)
	}
	if itemID != "" {
		item.ID = itemID
	}
	if item.CorrelationID == uuid.Nil {
		item.CorrelationID = uuid.New()
	}
	return &item, nil
}

// Validate проверяет обязательные поля.
//
// Поля договора и телефона должны присутствовать во входных данных,
// но их значения проверяются позже, по данным клиники из журнала.
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.CPR) == "" {
		return NewValidationError("cpr is required", ErrMissingField)
	}
	if w.ContractorID == nil || w.PhoneNumber == nil {
		return NewValidationError(
			"missing new clinic ydernummer or phone number in item data",
			ErrMissingField,
		)
	}
	return nil
}

// ExaminationMonth возвращает месяц осмотра.
// ok == false, если дата неизвестна или не разбирается.
func (w *WorkItem) ExaminationMonth() (t time.Time, ok bool) {
	if w.UnknownDate || w.ExaminationDate == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", w.ExaminationDate, Copenhagen)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String возвращает короткое описание элемента для логов без CPR.
func (w *WorkItem) String() string {
	return fmt.Sprintf("work item %s (%s)", w.ID, w.CorrelationID)
}
