package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) CreateWithPatient(ctx context.Context, user *model.User, patient *model.Patient) error {
	query := `
		INSERT INTO users (id, email, full_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.FullName,
			user.PasswordHash,
			user.CreatedAt,
		); err != nil {
			return mapError(err)
		}
		_, err := tx.ExecContext(ctx, insertPatient,
			patient.ID,
			patient.FullName,
			patient.Email,
			patient.Phone,
			patient.CreatedAt,
			patient.UpdatedAt,
		)
		return mapError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, full_name, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	return &user, nil
}

func (r *userRepository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)`

	var isAdmin bool
	if err := r.db.GetContext(ctx, &isAdmin, query, userID); err != nil {
		return false, fmt.Errorf("failed to check admin membership: %w", err)
	}
	return isAdmin, nil
}
