package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/discharge/internal/domain"
)

var journalColumns = map[string]string{
	FieldCPR:          "p.cpr",
	FieldDescription:  "dn.beskrivelse",
	FieldDocumentedAt: "dn.dokumenteret",
}

const journalBase = `
	SELECT dn.id, p.cpr, dn.beskrivelse, dn.dokumenteret
	FROM journal_notes dn
	JOIN patients p ON p.id = dn.patient_id
`

// JournalNoteRepo — записи в журнале пациента.
type JournalNoteRepo struct {
	pool *pgxpool.Pool
}

// NewJournalNoteRepo создаёт новый JournalNoteRepo.
func NewJournalNoteRepo(pool *pgxpool.Pool) *JournalNoteRepo {
	return &JournalNoteRepo{pool: pool}
}

// List возвращает записи, подходящие под запрос.
func (r *JournalNoteRepo) List(ctx context.Context, q *Query) ([]domain.JournalNote, error) {
	sql, args, err := build(journalBase, journalColumns, q)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr("list journal notes", err)
	}
	defer rows.Close()

	var notes []domain.JournalNote
	for rows.Next() {
		var n domain.JournalNote
		if err := rows.Scan(&n.ID, &n.CPR, &n.Description, &n.DocumentedAt); err != nil {
			return nil, wrapErr("scan journal note", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list journal notes", err)
	}
	return notes, nil
}
