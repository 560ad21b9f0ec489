package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/discharge/internal/domain"
)

// Person — пациент в архиве снимков.
type Person struct {
	ID   string
	Name string
}

// ImageRepo — архив снимков пациента.
type ImageRepo struct {
	pool *pgxpool.Pool
}

// NewImageRepo создаёт новый ImageRepo.
func NewImageRepo(pool *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{pool: pool}
}

// Person возвращает пациента по CPR. ErrNotFound, если пациента нет
// или у него не заполнено имя.
func (r *ImageRepo) Person(ctx context.Context, cpr string) (*Person, error) {
	var (
		id                         string
		first, second, third, last *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT person_id, first_name, second_name, third_name, last_name
		FROM romexis.persons
		WHERE external_id = $1
	`, cpr).Scan(&id, &first, &second, &third, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get person", err)
	}

	if id == "" || (nullString(first) == "" && nullString(last) == "") {
		return nil, ErrNotFound
	}

	var parts []string
	for _, p := range []*string{first, second, third, last} {
		if s := nullString(p); s != "" {
			parts = append(parts, s)
		}
	}
	return &Person{ID: id, Name: strings.Join(parts, " ")}, nil
}

// Images возвращает снимки пациента.
func (r *ImageRepo) Images(ctx context.Context, personID string) ([]domain.PatientImage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT image_id, person_id, file_path, taken_at
		FROM romexis.images
		WHERE person_id = $1
		ORDER BY taken_at ASC
	`, personID)
	if err != nil {
		return nil, wrapErr("list images", err)
	}
	defer rows.Close()

	var images []domain.PatientImage
	for rows.Next() {
		var img domain.PatientImage
		if err := rows.Scan(&img.ID, &img.PersonID, &img.FilePath, &img.TakenAt); err != nil {
			return nil, wrapErr("scan image", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list images", err)
	}
	return images, nil
}
