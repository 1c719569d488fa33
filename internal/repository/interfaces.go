package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/model"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrPreconditionFailed is returned when a guarded update matched no row
	// because the stored state changed since it was read.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		UpdateStatus(ctx context.Context, update *model.StatusUpdate) error
		Count(ctx context.Context, filters *model.AppointmentFilters) (int, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
		Count(ctx context.Context, filters *model.PatientFilters) (int, error)
	}

	UserRepository interface {
		// CreateWithPatient inserts the login and its patient record atomically.
		CreateWithPatient(ctx context.Context, user *model.User, patient *model.Patient) error
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	}

	LeadRepository interface {
		Create(ctx context.Context, lead *model.Lead) error
		Get(ctx context.Context, id uuid.UUID) (*model.Lead, error)
		List(ctx context.Context) ([]*model.Lead, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeadStatus) error
	}

	DocumentRepository interface {
		Create(ctx context.Context, doc *model.MedicalDocument) error
		ListByPatient(ctx context.Context, patientEmail string) ([]*model.MedicalDocument, error)
	}
)

