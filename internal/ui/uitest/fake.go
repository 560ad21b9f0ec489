// Package uitest содержит программируемую подделку ui.Accessor для тестов.
package uitest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shaiso/discharge/internal/ui"
)

// ErrNotFound — элемент отсутствует.
var ErrNotFound = errors.New("element not found")

// Action — действие, выполненное над подделкой.
type Action struct {
	Kind   string // click, set_value, send_keys, scroll, click_cell, set_files, navigate
	Target string // ключ селектора или URL
	Value  string
}

// String возвращает описание действия для сообщений тестов.
func (a Action) String() string {
	if a.Value == "" {
		return a.Kind + " " + a.Target
	}
	return a.Kind + " " + a.Target + " = " + a.Value
}

type element struct {
	present    bool
	flipAfter  int // через сколько вызовов Exists меняется present
	existsErrs int // сколько вызовов Exists вернут ошибку
	rows       [][]string
}

// Fake — подделка интерфейса.
//
// Элементы, о которых подделка ничего не знает, считаются существующими,
// если DefaultPresent == true.
type Fake struct {
	DefaultPresent bool

	mu       sync.Mutex
	elements map[string]*element
	actions  []Action
	hooks    map[string]func()
}

// New создаёт подделку, в которой по умолчанию есть все элементы.
func New() *Fake {
	return &Fake{
		DefaultPresent: true,
		elements:       make(map[string]*element),
		hooks:          make(map[string]func()),
	}
}

// Key возвращает ключ селектора: тип и критерий без роли и глубины.
func Key(sel ui.Selector) string {
	return string(sel.Kind) + "=" + sel.Criteria
}

func (f *Fake) get(sel ui.Selector) *element {
	k := Key(sel)
	el, ok := f.elements[k]
	if !ok {
		el = &element{present: f.DefaultPresent}
		f.elements[k] = el
	}
	return el
}

// Show делает элемент существующим.
func (f *Fake) Show(sel ui.Selector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el := f.get(sel)
	el.present = true
	el.flipAfter = 0
}

// Hide убирает элемент.
func (f *Fake) Hide(sel ui.Selector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el := f.get(sel)
	el.present = false
	el.flipAfter = 0
}

// ShowAfter — элемент появится после n вызовов Exists.
func (f *Fake) ShowAfter(sel ui.Selector, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el := f.get(sel)
	el.present = false
	el.flipAfter = n
}

// HideAfter — элемент исчезнет после n вызовов Exists.
func (f *Fake) HideAfter(sel ui.Selector, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el := f.get(sel)
	el.present = true
	el.flipAfter = n
}

// FailExists — следующие n вызовов Exists для элемента вернут ошибку.
func (f *Fake) FailExists(sel ui.Selector, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.get(sel).existsErrs = n
}

// SetTable задаёт строки таблицы.
func (f *Fake) SetTable(sel ui.Selector, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el := f.get(sel)
	el.present = true
	el.rows = rows
}

// OnClick регистрирует функцию, вызываемую при нажатии на элемент.
func (f *Fake) OnClick(sel ui.Selector, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[Key(sel)] = fn
}

// Actions возвращает копию выполненных действий.
func (f *Fake) Actions() []Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Action, len(f.actions))
	copy(out, f.actions)
	return out
}

// ActionsOf возвращает действия заданного вида.
func (f *Fake) ActionsOf(kind string) []Action {
	var out []Action
	for _, a := range f.Actions() {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// ValueOf возвращает последнее значение, установленное в элемент.
func (f *Fake) ValueOf(sel ui.Selector) (string, bool) {
	k := Key(sel)
	actions := f.Actions()
	for i := len(actions) - 1; i >= 0; i-- {
		if actions[i].Kind == "set_value" && actions[i].Target == k {
			return actions[i].Value, true
		}
	}
	return "", false
}

func (f *Fake) record(kind, target, value string) {
	f.actions = append(f.actions, Action{Kind: kind, Target: target, Value: value})
}

// Exists реализует ui.Accessor.
func (f *Fake) Exists(ctx context.Context, sel ui.Selector) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	el := f.get(sel)
	if el.existsErrs > 0 {
		el.existsErrs--
		return false, fmt.Errorf("query %s: transient accessor error", Key(sel))
	}
	if el.flipAfter > 0 {
		el.flipAfter--
		if el.flipAfter == 0 {
			present := !el.present
			el.present = present
			return present, nil
		}
	}
	return el.present, nil
}

// Find реализует ui.Accessor.
func (f *Fake) Find(ctx context.Context, sel ui.Selector) (ui.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.get(sel).present {
		return ui.Element{}, fmt.Errorf("%w: %s", ErrNotFound, Key(sel))
	}
	return ui.Element{Selector: sel, Handle: Key(sel)}, nil
}

// SetValue реализует ui.Accessor.
func (f *Fake) SetValue(ctx context.Context, el ui.Element, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_value", el.Handle, value)
	return nil
}

// Click реализует ui.Accessor.
func (f *Fake) Click(ctx context.Context, el ui.Element) error {
	f.mu.Lock()
	f.record("click", el.Handle, "")
	hook := f.hooks[el.Handle]
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// SendKeys реализует ui.Accessor.
func (f *Fake) SendKeys(ctx context.Context, el ui.Element, key ui.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("send_keys", el.Handle, string(key))
	return nil
}

// ScrollIntoView реализует ui.Accessor.
func (f *Fake) ScrollIntoView(ctx context.Context, el ui.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("scroll", el.Handle, "")
	return nil
}

// Table реализует ui.Accessor.
func (f *Fake) Table(ctx context.Context, el ui.Element) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.elements[el.Handle]
	if !ok {
		return nil, nil
	}
	rows := make([][]string, len(e.rows))
	copy(rows, e.rows)
	return rows, nil
}

// ClickCell реализует ui.Accessor.
func (f *Fake) ClickCell(ctx context.Context, el ui.Element, row, col int) error {
	f.mu.Lock()
	f.record("click_cell", el.Handle, fmt.Sprintf("%d,%d", row, col))
	hook := f.hooks[fmt.Sprintf("%s#%d,%d", el.Handle, row, col)]
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// OnClickCell регистрирует функцию, вызываемую при нажатии на ячейку.
func (f *Fake) OnClickCell(sel ui.Selector, row, col int, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[fmt.Sprintf("%s#%d,%d", Key(sel), row, col)] = fn
}

// SetFiles реализует ui.Accessor.
func (f *Fake) SetFiles(ctx context.Context, el ui.Element, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_files", el.Handle, strings.Join(paths, ";"))
	return nil
}

// Navigate реализует ui.Accessor.
func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate", url, "")
	return nil
}

var _ ui.Accessor = (*Fake)(nil)
