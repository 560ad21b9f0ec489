package ui

import (
	"context"
	"fmt"
	"strings"
)

// SelectorKind — способ поиска элемента.
type SelectorKind string

const (
	// ByID — поиск по идентификатору элемента (AutomationId, id).
	ByID SelectorKind = "id"

	// ByName — поиск по отображаемому тексту элемента.
	ByName SelectorKind = "name"

	// ByClass — поиск по полному значению атрибута class.
	ByClass SelectorKind = "class"

	// ByCSS — произвольный CSS-селектор (только для браузера).
	ByCSS SelectorKind = "css"
)

// Selector — один кандидат для поиска элемента.
type Selector struct {
	// Kind — способ поиска.
	Kind SelectorKind

	// Criteria — значение для поиска.
	Criteria string

	// Role — тип элемента (button, edit, table, text). Пусто — любой.
	Role string

	// Depth — максимальная глубина поиска в дереве элементов.
	// 0 — без ограничения.
	Depth int
}

// String возвращает описание селектора для логов.
func (s Selector) String() string {
	var b strings.Builder
	if s.Role != "" {
		b.WriteString(s.Role)
	}
	fmt.Fprintf(&b, "[%s=%q]", s.Kind, s.Criteria)
	if s.Depth > 0 {
		fmt.Fprintf(&b, "@%d", s.Depth)
	}
	return b.String()
}

// ID — селектор по идентификатору.
func ID(id string) Selector { return Selector{Kind: ByID, Criteria: id} }

// Name — селектор по отображаемому тексту.
func Name(name string) Selector { return Selector{Kind: ByName, Criteria: name} }

// Class — селектор по атрибуту class.
func Class(class string) Selector { return Selector{Kind: ByClass, Criteria: class} }

// WithRole возвращает копию селектора с типом элемента.
func (s Selector) WithRole(role string) Selector {
	s.Role = role
	return s
}

// WithDepth возвращает копию селектора с глубиной поиска.
func (s Selector) WithDepth(depth int) Selector {
	s.Depth = depth
	return s
}

// Element — найденный элемент интерфейса.
//
// Element — непрозрачный дескриптор: его нужно передавать обратно в
// Accessor, который его выдал.
type Element struct {
	// Selector — селектор, по которому элемент найден.
	Selector Selector

	// Handle — внутренний идентификатор элемента у Accessor.
	Handle string
}

// Key — специальная клавиша для SendKeys.
type Key string

const (
	// KeyEnter — клавиша Enter.
	KeyEnter Key = "enter"
)

// Accessor — доступ к внешнему интерфейсу (окну приложения или странице портала).
//
// Методы не ждут появления элементов: ожидание выполняется пакетом waiter,
// который опрашивает Exists.
type Accessor interface {
	// Exists проверяет, существует ли элемент прямо сейчас.
	Exists(ctx context.Context, sel Selector) (bool, error)

	// Find возвращает элемент или ошибку, если его нет.
	Find(ctx context.Context, sel Selector) (Element, error)

	// SetValue устанавливает значение поля ввода.
	SetValue(ctx context.Context, el Element, value string) error

	// Click нажимает на элемент.
	Click(ctx context.Context, el Element) error

	// SendKeys отправляет клавишу элементу.
	SendKeys(ctx context.Context, el Element, key Key) error

	// ScrollIntoView прокручивает страницу до элемента.
	ScrollIntoView(ctx context.Context, el Element) error

	// Table читает строки таблицы (без заголовка) как текст ячеек.
	Table(ctx context.Context, el Element) ([][]string, error)

	// ClickCell нажимает на ячейку таблицы.
	ClickCell(ctx context.Context, el Element, row, col int) error

	// SetFiles выбирает файлы в поле загрузки.
	SetFiles(ctx context.Context, el Element, paths []string) error

	// Navigate открывает адрес в текущей вкладке.
	Navigate(ctx context.Context, url string) error
}
