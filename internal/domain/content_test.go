package domain

import (
	"errors"
	"testing"
)

func TestParseContentTemplate(t *testing.T) {
	raw := `{"edi_portal_content": {"subject": "Udskrivning", "body": "Hej\n@dentalPlan\nHilsen"}}`

	tpl, err := ParseContentTemplate(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Subject != "Udskrivning" || tpl.Body != "Hej\n@dentalPlan\nHilsen" {
		t.Errorf("unexpected template: %+v", tpl)
	}
}

func TestParseContentTemplate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"пусто", ""},
		{"не JSON", "{"},
		{"без ключа", `{"other": {}}`},
		{"без темы", `{"edi_portal_content": {"body": "x"}}`},
		{"без текста", `{"edi_portal_content": {"subject": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseContentTemplate(tt.raw)
			if !errors.Is(err, ErrInvalidContent) {
				t.Errorf("expected ErrInvalidContent, got %v", err)
			}
			if KindOf(err) != KindTechnical {
				t.Errorf("expected technical kind, got %s", KindOf(err))
			}
		})
	}
}
