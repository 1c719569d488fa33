package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
)

const appointmentColumns = `id, patient_name, patient_email, patient_phone,
			   to_char(appointment_date, 'YYYY-MM-DD') AS appointment_date,
			   appointment_time, service_type, notes, status,
			   created_at, updated_at`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_name, patient_email, patient_phone,
			appointment_date, appointment_time, service_type, notes,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientName,
		appointment.PatientEmail,
		appointment.PatientPhone,
		appointment.AppointmentDate,
		appointment.AppointmentTime,
		appointment.ServiceType,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", mapError(err))
	}
	return &appointment, nil
}

// appointment_time holds "HH:MM AM" text, so it is parsed to sort 02:00 PM
// after 09:00 AM.
const adminListingOrder = "appointment_date DESC, to_timestamp(appointment_time, 'HH12:MI AM') ASC, created_at ASC"

// List orders the admin listing newest day first, then by clock time within
// the day. A patient filter orders newest first, matching the portal's view.
func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	where := appointmentWhere(filters)
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + where.sql()

	if filters != nil && filters.PatientEmail != "" {
		query += " ORDER BY appointment_date DESC, created_at DESC"
	} else {
		query += " ORDER BY " + adminListingOrder
	}

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, where.args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatus only applies when the row still holds FromStatus (and
// ExpectedUpdatedAt when given).
func (r *appointmentRepository) UpdateStatus(ctx context.Context, update *model.StatusUpdate) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	args := []interface{}{update.ToStatus, update.UpdatedAt, update.ID, update.FromStatus}
	if update.ExpectedUpdatedAt != nil {
		query += " AND updated_at = $5"
		args = append(args, *update.ExpectedUpdatedAt)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrPreconditionFailed
	}
	return nil
}

func (r *appointmentRepository) Count(ctx context.Context, filters *model.AppointmentFilters) (int, error) {
	where := appointmentWhere(filters)
	query := `SELECT COUNT(*) FROM appointments` + where.sql()

	var count int
	if err := r.db.GetContext(ctx, &count, query, where.args...); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func appointmentWhere(filters *model.AppointmentFilters) *whereBuilder {
	w := &whereBuilder{}
	if filters == nil {
		return w
	}
	if filters.Status != "" {
		w.add("status = $%d", filters.Status)
	}
	if filters.PatientEmail != "" {
		w.add("lower(patient_email) = lower($%d)", filters.PatientEmail)
	}
	if filters.Date != "" {
		w.add("appointment_date = $%d::date", filters.Date)
	}
	if filters.DateFrom != "" {
		w.add("appointment_date >= $%d::date", filters.DateFrom)
	}
	if filters.DateTo != "" {
		w.add("appointment_date < $%d::date", filters.DateTo)
	}
	return w
}
