package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RPARepo — служебные таблицы робота: константы и сообщения бизнес-ошибок.
type RPARepo struct {
	pool *pgxpool.Pool
}

// NewRPARepo создаёт новый RPARepo.
func NewRPARepo(pool *pgxpool.Pool) *RPARepo {
	return &RPARepo{pool: pool}
}

// Constant возвращает значение константы по имени.
func (r *RPARepo) Constant(ctx context.Context, name string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `
		SELECT value FROM rpa.constants WHERE name = $1
	`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", wrapErr("get constant", err)
	}
	return value, nil
}

// ExceptionMessage возвращает текст бизнес-ошибки по коду.
func (r *RPARepo) ExceptionMessage(ctx context.Context, code string) (string, error) {
	var text string
	err := r.pool.QueryRow(ctx, `
		SELECT message_text FROM rpa.business_exception_messages WHERE exception_code = $1
	`, code).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", wrapErr("get exception message", err)
	}
	return text, nil
}
