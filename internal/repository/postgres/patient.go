package postgres

import (
	"context"
	"fmt"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const insertPatient = `
		INSERT INTO patients (id, full_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	_, err := r.db.ExecContext(ctx, insertPatient,
		patient.ID,
		patient.FullName,
		patient.Email,
		patient.Phone,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", mapError(err))
	}
	return nil
}

func (r *patientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	query := `
		SELECT id, full_name, email, phone, created_at, updated_at
		FROM patients
		WHERE lower(email) = lower($1)
	`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, email); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", mapError(err))
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `
		SELECT id, full_name, email, phone, created_at, updated_at
		FROM patients
		ORDER BY created_at DESC
	`
	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context, filters *model.PatientFilters) (int, error) {
	w := &whereBuilder{}
	if filters != nil && filters.CreatedSince != nil {
		w.add("created_at >= $%d", *filters.CreatedSince)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patients`+w.sql(), w.args...); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}
