package edi

import (
	"testing"
	"time"

	"github.com/shaiso/discharge/internal/domain"
)

func TestRenderBody(t *testing.T) {
	texts := Texts{
		Continuation:            "Besked til privat tandklinik: ",
		ContinuationReplacement: "Besked til privat tandlæge: ",
	}

	tests := []struct {
		name string
		body string
		item domain.WorkItem
		note string
		want string
	}{
		{
			name: "план лечения с префиксом",
			body: "Hej\n@dentalPlan\nMvh",
			item: domain.WorkItem{DentalPlan: true},
			note: "Besked til privat tandklinik: Fyldning 36",
			want: "Hej\nFyldning 36\nMvh",
		},
		{
			name: "план лечения с альтернативным префиксом",
			body: "Hej\n@dentalPlan\nMvh",
			item: domain.WorkItem{DentalPlan: true},
			note: "Besked til privat tandlæge: Rens",
			want: "Hej\nRens\nMvh",
		},
		{
			name: "план лечения без записи",
			body: "Hej\n@dentalPlan\nMvh",
			item: domain.WorkItem{DentalPlan: true},
			want: "Hej\n\nMvh",
		},
		{
			name: "без плана строка удаляется",
			body: "Hej\n  @dentalPlan\nMvh",
			item: domain.WorkItem{},
			note: "Besked til privat tandklinik: ignoreres",
			want: "Hej\nMvh",
		},
		{
			name: "дата осмотра",
			body: "Sidst undersøgt: @examinationDate",
			item: domain.WorkItem{ExaminationDate: "2025-03-14"},
			want: "Sidst undersøgt: Marts 2025",
		},
		{
			name: "неизвестная дата осмотра",
			body: "Sidst undersøgt: @examinationDate",
			item: domain.WorkItem{ExaminationDate: "2025-03-14", UnknownDate: true},
			want: "Sidst undersøgt: Ukendt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderBody(tt.body, &tt.item, tt.note, texts)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatDanishMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, "Januar 2024"},
		{time.May, "Maj 2024"},
		{time.October, "Oktober 2024"},
	}

	for _, tt := range tests {
		got := FormatDanishMonth(time.Date(2024, tt.month, 1, 0, 0, 0, 0, domain.Copenhagen))
		if got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestReceiptFilename(t *testing.T) {
	if got := ReceiptFilename("Anna Jensen"); got != "EDI Portal - Anna Jensen.pdf" {
		t.Errorf("unexpected filename %q", got)
	}
}
