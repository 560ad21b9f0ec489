package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ContentConstantName — имя константы RPA с шаблоном сообщения.
const ContentConstantName = "udskrivning_edi_portal_content"

// ErrInvalidContent — шаблон сообщения отсутствует или некорректен.
var ErrInvalidContent = errors.New("invalid or missing edi_portal_content")

// ContentTemplate — шаблон темы и текста сообщения в портале.
//
// Body может содержать плейсхолдеры @dentalPlan и @examinationDate.
type ContentTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ParseContentTemplate разбирает значение константы вида
// {"edi_portal_content": {"subject": ..., "body": ...}}.
func ParseContentTemplate(raw string) (ContentTemplate, error) {
	var value struct {
		Content *ContentTemplate `json:"edi_portal_content"`
	}
	if raw == "" {
		return ContentTemplate{}, NewTechnicalError("constant "+ContentConstantName+" not found", ErrInvalidContent)
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return ContentTemplate{}, NewTechnicalError("decode "+ContentConstantName,
			fmt.Errorf("%w: %w", ErrInvalidContent, err))
	}
	if value.Content == nil {
		return ContentTemplate{}, NewTechnicalError("decode "+ContentConstantName, ErrInvalidContent)
	}
	if value.Content.Subject == "" {
		return ContentTemplate{}, NewTechnicalError("subject is required", ErrInvalidContent)
	}
	if value.Content.Body == "" {
		return ContentTemplate{}, NewTechnicalError("body is required", ErrInvalidContent)
	}
	return *value.Content, nil
}
