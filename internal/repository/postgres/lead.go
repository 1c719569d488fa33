package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
)

type leadRepository struct {
	BaseRepository
}

func NewLeadRepository(base BaseRepository) repository.LeadRepository {
	return &leadRepository{base}
}

func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, source, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Status,
		lead.Notes,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", mapError(err))
	}
	return nil
}

func (r *leadRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lead, error) {
	query := `
		SELECT id, name, email, phone, source, status, notes, created_at
		FROM leads
		WHERE id = $1
	`
	var lead model.Lead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", mapError(err))
	}
	return &lead, nil
}

func (r *leadRepository) List(ctx context.Context) ([]*model.Lead, error) {
	query := `
		SELECT id, name, email, phone, source, status, notes, created_at
		FROM leads
		ORDER BY created_at DESC
	`
	leads := []*model.Lead{}
	if err := r.db.SelectContext(ctx, &leads, query); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE leads SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
