package repo

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Op — оператор фильтра.
type Op string

const (
	OpEq   Op = "="
	OpLike Op = "LIKE"
	OpGTE  Op = ">="
	OpIn   Op = "IN"
)

// Predicate — условие на одно поле.
type Predicate struct {
	Op    Op
	Value any
}

// Eq — поле равно значению.
func Eq(v any) Predicate { return Predicate{Op: OpEq, Value: v} }

// Like — поле соответствует шаблону с подстановочными знаками %.
func Like(pattern string) Predicate { return Predicate{Op: OpLike, Value: pattern} }

// Contains — поле содержит подстроку.
func Contains(s string) Predicate { return Like("%" + s + "%") }

// GTE — время в поле не раньше t.
func GTE(t time.Time) Predicate { return Predicate{Op: OpGTE, Value: t} }

// In — поле равно одному из значений.
func In(values ...string) Predicate { return Predicate{Op: OpIn, Value: values} }

// Direction — направление сортировки.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Query — фильтры и сортировка для выборки из журнала.
//
// Поля задаются логическими именами (cpr, document_type, created_at),
// репозиторий сопоставляет их со столбцами.
type Query struct {
	Filters   map[string]Predicate
	OrderBy   string
	Direction Direction
	Limit     int
}

// NewQuery создаёт пустой Query.
func NewQuery() *Query {
	return &Query{Filters: make(map[string]Predicate)}
}

// Where добавляет фильтр по полю.
func (q *Query) Where(field string, p Predicate) *Query {
	if q.Filters == nil {
		q.Filters = make(map[string]Predicate)
	}
	q.Filters[field] = p
	return q
}

// Order задаёт сортировку.
func (q *Query) Order(field string, dir Direction) *Query {
	q.OrderBy = field
	q.Direction = dir
	return q
}

// Take ограничивает число строк.
func (q *Query) Take(limit int) *Query {
	q.Limit = limit
	return q
}

// build собирает WHERE, ORDER BY и LIMIT для base.
//
// columns — допустимые поля и их столбцы. Фильтры добавляются в порядке
// имён полей, чтобы текст запроса не зависел от порядка обхода map.
func build(base string, columns map[string]string, q *Query) (string, []any, error) {
	if q == nil {
		q = NewQuery()
	}

	fields := make([]string, 0, len(q.Filters))
	for f := range q.Filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var (
		where []string
		args  []any
	)
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
		p := q.Filters[f]
		args = append(args, p.Value)
		n := len(args)

		switch p.Op {
		case OpEq:
			where = append(where, fmt.Sprintf("%s = $%d", col, n))
		case OpLike:
			where = append(where, fmt.Sprintf("%s LIKE $%d", col, n))
		case OpGTE:
			where = append(where, fmt.Sprintf("%s >= $%d", col, n))
		case OpIn:
			where = append(where, fmt.Sprintf("%s = ANY($%d)", col, n))
		default:
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownOp, p.Op)
		}
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	if len(where) > 0 {
		if hasWhere(base) {
			b.WriteString(" AND ")
		} else {
			b.WriteString(" WHERE ")
		}
		b.WriteString(strings.Join(where, " AND "))
	}

	if q.OrderBy != "" {
		col, ok := columns[q.OrderBy]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, q.OrderBy)
		}
		dir := q.Direction
		if dir != Desc {
			dir = Asc
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", col, dir)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	return b.String(), args, nil
}

// hasWhere проверяет, есть ли в base собственное условие WHERE.
func hasWhere(base string) bool {
	for _, word := range strings.Fields(strings.ToUpper(base)) {
		if word == "WHERE" {
			return true
		}
	}
	return false
}
