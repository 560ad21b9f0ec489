package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/discharge/internal/domain"
)

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrUnknownField — фильтр или сортировка по неизвестному полю.
	ErrUnknownField = errors.New("unknown query field")

	// ErrUnknownOp — неизвестный оператор фильтра.
	ErrUnknownOp = errors.New("unknown query operator")
)

// Коды SQLSTATE, при которых запрос можно повторить.
var transientCodes = map[string]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
	"40001": true, // serialization_failure
}

// IsTransient возвращает true для ошибок соединения и таймаутов.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Класс 08 — connection exception
		return strings.HasPrefix(pgErr.Code, "08") || transientCodes[pgErr.Code]
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

// wrapErr оборачивает ошибку запроса. Временные ошибки получают класс
// domain.KindTransient, чтобы retry.Policy их повторяла.
func wrapErr(op string, err error) error {
	if IsTransient(err) {
		return domain.NewTransientError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
