package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/discharge/internal/domain"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"обёрнутая", fmt.Errorf("query: %w", &pgconn.PgError{Code: "08001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"обычная ошибка", errors.New("boom"), false},
		{"not found", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWrapErr(t *testing.T) {
	err := wrapErr("list documents", &pgconn.PgError{Code: "08006"})
	if domain.KindOf(err) != domain.KindTransient {
		t.Errorf("expected transient kind, got %s", domain.KindOf(err))
	}

	err = wrapErr("list documents", &pgconn.PgError{Code: "42601"})
	if domain.KindOf(err) != domain.KindTechnical {
		t.Errorf("expected technical kind, got %s", domain.KindOf(err))
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Error("expected pg error in chain")
	}
}
