package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/discharge/internal/domain"
)

// ClinicRepo — клиники пациента.
type ClinicRepo struct {
	pool *pgxpool.Pool
}

// NewClinicRepo создаёт новый ClinicRepo.
func NewClinicRepo(pool *pgxpool.Pool) *ClinicRepo {
	return &ClinicRepo{pool: pool}
}

// PrimaryClinic возвращает клинику, в которой пациент наблюдается.
func (r *ClinicRepo) PrimaryClinic(ctx context.Context, cpr string) (*domain.PrimaryClinic, error) {
	var c domain.PrimaryClinic
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, c.name, c.id
		FROM patients p
		JOIN clinics c ON c.id = p.primary_clinic_id
		WHERE p.cpr = $1
	`, cpr).Scan(&c.PatientID, &c.ClinicName, &c.ClinicID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get primary clinic", err)
	}
	return &c, nil
}

// ExternClinic возвращает частную клинику, записанную в журнале пациента.
func (r *ClinicRepo) ExternClinic(ctx context.Context, cpr string) (*domain.ExternClinic, error) {
	var (
		c                   domain.ExternClinic
		contractorID, phone *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT ed.contractor_id, ed.name, ed.phone_number
		FROM patients p
		JOIN extern_dentists ed ON ed.id = p.extern_dentist_id
		WHERE p.cpr = $1
	`, cpr).Scan(&contractorID, &c.Name, &phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get extern clinic", err)
	}
	c.ContractorID = nullString(contractorID)
	c.PhoneNumber = nullString(phone)
	return &c, nil
}
