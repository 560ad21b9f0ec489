package edi

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shaiso/discharge/internal/domain"
)

// Плейсхолдеры в тексте сообщения.
const (
	PlaceholderDentalPlan      = "@dentalPlan"
	PlaceholderExaminationDate = "@examinationDate"
)

// UnknownExaminationDate — текст для неизвестной даты осмотра.
const UnknownExaminationDate = "Ukendt"

var danishMonths = [...]string{
	"januar", "februar", "marts", "april", "maj", "juni",
	"juli", "august", "september", "oktober", "november", "december",
}

var (
	dentalPlanLine = regexp.MustCompile(`\n\s*@dentalPlan\s`)
	danishTitle    = cases.Title(language.Danish)
)

// Texts — тексты, которые вырезаются из записи продолжения журнала.
type Texts struct {
	// Continuation — префикс записи продолжения («Besked til privat tandklinik: »).
	Continuation string

	// ContinuationReplacement — альтернативный префикс записи.
	ContinuationReplacement string
}

// StripContinuation убирает известный префикс из записи продолжения журнала.
func (t Texts) StripContinuation(note string) string {
	switch {
	case note == "":
		return ""
	case t.Continuation != "" && strings.Contains(note, t.Continuation):
		return strings.ReplaceAll(note, t.Continuation, "")
	case t.ContinuationReplacement != "" && strings.Contains(note, t.ContinuationReplacement):
		return strings.ReplaceAll(note, t.ContinuationReplacement, "")
	default:
		return note
	}
}

// RenderBody подставляет данные элемента в шаблон текста сообщения.
//
// Если у пациента есть план лечения, @dentalPlan заменяется текстом
// записи продолжения журнала. Иначе строка с @dentalPlan удаляется.
func RenderBody(body string, item *domain.WorkItem, journalNote string, texts Texts) string {
	if item.DentalPlan {
		body = strings.ReplaceAll(body, PlaceholderDentalPlan, texts.StripContinuation(journalNote))
	} else {
		body = dentalPlanLine.ReplaceAllString(body, "\n")
	}

	if strings.Contains(body, PlaceholderExaminationDate) {
		body = strings.ReplaceAll(body, PlaceholderExaminationDate, ExaminationMonth(item))
	}
	return body
}

// ExaminationMonth возвращает месяц и год осмотра по-датски, с заглавной
// буквы («Marts 2025»), либо «Ukendt».
func ExaminationMonth(item *domain.WorkItem) string {
	t, ok := item.ExaminationMonth()
	if !ok {
		return UnknownExaminationDate
	}
	return FormatDanishMonth(t)
}

// FormatDanishMonth форматирует месяц и год по-датски.
func FormatDanishMonth(t time.Time) string {
	month := danishMonths[t.Month()-1]
	return danishTitle.String(month) + " " + t.Format("2006")
}
