package dashboard

import (
	"context"
	"time"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
)

type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	loc          *time.Location
	clock        func() time.Time
}

func NewService(appointments repository.AppointmentRepository, patients repository.PatientRepository, loc *time.Location, clock func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{appointments: appointments, patients: patients, loc: loc, clock: clock}
}

// MonthRange returns the first instant of t's month and of the next month,
// in t's location.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// Stats computes the admin dashboard summary in the clinic's timezone.
func (s *Service) Stats(ctx context.Context) (*model.DashboardStats, error) {
	now := s.clock().In(s.loc)
	today := now.Format(model.DateLayout)
	monthStart, nextMonth := MonthRange(now)

	var stats model.DashboardStats
	var err error

	if stats.TotalPatients, err = s.patients.Count(ctx, nil); err != nil {
		return nil, errors.Unavailable("failed to load stats", err)
	}
	if stats.NewPatientsThisMonth, err = s.patients.Count(ctx, &model.PatientFilters{CreatedSince: &monthStart}); err != nil {
		return nil, errors.Unavailable("failed to load stats", err)
	}
	if stats.AppointmentsToday, err = s.appointments.Count(ctx, &model.AppointmentFilters{Date: today}); err != nil {
		return nil, errors.Unavailable("failed to load stats", err)
	}
	if stats.PendingAppointments, err = s.appointments.Count(ctx, &model.AppointmentFilters{Status: model.AppointmentStatusPending}); err != nil {
		return nil, errors.Unavailable("failed to load stats", err)
	}

	completed, err := s.appointments.List(ctx, &model.AppointmentFilters{
		Status:   model.AppointmentStatusCompleted,
		DateFrom: monthStart.Format(model.DateLayout),
		DateTo:   nextMonth.Format(model.DateLayout),
	})
	if err != nil {
		return nil, errors.Unavailable("failed to load stats", err)
	}
	for _, apt := range completed {
		if svc, ok := model.LookupService(apt.ServiceType); ok {
			stats.RevenueThisMonth += svc.Price
		}
	}

	return &stats, nil
}

func (s *Service) Patients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, errors.Unavailable("failed to load patients", err)
	}
	return patients, nil
}
