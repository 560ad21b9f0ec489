package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/discharge/internal/domain"
)

// Поля документов для Query.
const (
	FieldCPR              = "cpr"
	FieldDocumentType     = "document_type"
	FieldDescription      = "description"
	FieldOriginalFilename = "original_filename"
	FieldCreatedAt        = "created_at"
	FieldDocumentedAt     = "documented_at"
)

var documentColumns = map[string]string{
	FieldCPR:              "p.cpr",
	FieldDocumentType:     "ds.document_type",
	FieldDescription:      "ds.document_description",
	FieldOriginalFilename: "ds.original_filename",
	FieldCreatedAt:        "ds.document_created_date",
}

// Только последние версии активных документов.
const documentBase = `
	SELECT ds.id, p.cpr, ds.document_type, COALESCE(ds.document_description, ''),
	       ds.original_filename, ds.file_source_path, ds.document_created_date
	FROM document_store ds
	JOIN patients p ON p.id = ds.patient_id
	WHERE ds.rn = 1 AND ds.document_store_status_id = 1
`

// DocumentRepo — документы в журнале пациента.
type DocumentRepo struct {
	pool *pgxpool.Pool
}

// NewDocumentRepo создаёт новый DocumentRepo.
func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// List возвращает документы, подходящие под запрос.
func (r *DocumentRepo) List(ctx context.Context, q *Query) ([]domain.Document, error) {
	sql, args, err := build(documentBase, documentColumns, q)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list documents", err)
	}
	return docs, nil
}

// Count возвращает число документов, подходящих под запрос.
func (r *DocumentRepo) Count(ctx context.Context, q *Query) (int, error) {
	docs, err := r.List(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func scanDocument(rows pgx.Rows) (*domain.Document, error) {
	var doc domain.Document
	err := rows.Scan(
		&doc.ID,
		&doc.CPR,
		&doc.DocumentType,
		&doc.Description,
		&doc.OriginalFilename,
		&doc.SourcePath,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("scan document", err)
	}
	return &doc, nil
}
