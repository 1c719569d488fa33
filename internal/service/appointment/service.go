package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/internal/email"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/messaging"
	"github.com/makhanda-smiles/portal-api/pkg/metrics"
)

type Notifier interface {
	Send(ctx context.Context, n email.Notification) error
}

type Config struct {
	Location *time.Location
	Clock    func() time.Time
}

type Service struct {
	repo      repository.AppointmentRepository
	publisher messaging.Publisher
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	cfg       Config
}

// StatusChange is the result of a status update: the written record and the
// re-read listing. Stale is set when the write landed but the re-read did
// not, so the client should reload.
type StatusChange struct {
	Appointment  *model.Appointment   `json:"appointment"`
	Appointments []*model.Appointment `json:"appointments"`
	Stale        bool                 `json:"stale,omitempty"`
}

func NewService(repo repository.AppointmentRepository, publisher messaging.Publisher, notifier Notifier, m *metrics.Metrics, logger zerolog.Logger, cfg Config) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

// Filter returns the appointments visible under f, in their original order.
func Filter(appointments []*model.Appointment, f model.StatusFilter) []*model.Appointment {
	out := make([]*model.Appointment, 0, len(appointments))
	for _, apt := range appointments {
		if f.Matches(apt) {
			out = append(out, apt)
		}
	}
	return out
}

// List returns every appointment matching the status filter. An empty
// filter means all.
func (s *Service) List(ctx context.Context, f model.StatusFilter) ([]*model.Appointment, error) {
	if f == "" {
		f = model.StatusFilterAll
	}
	if !f.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown status filter %q", f), nil)
	}

	appointments, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, errors.Unavailable("failed to load appointments", err)
	}
	return Filter(appointments, f), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("appointment", err)
		}
		return nil, errors.Unavailable("failed to load appointment", err)
	}
	return apt, nil
}

// UpdateStatus moves an appointment along the lifecycle. The write is
// guarded by the status it was read with, and by expected_updated_at when
// the caller supplies it.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req model.UpdateStatusRequest) (*StatusChange, error) {
	if !req.Status.Valid() {
		s.metrics.StatusRejection("invalid_status")
		return nil, errors.BadRequest(fmt.Sprintf("unknown status %q", req.Status), nil)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ExpectedUpdatedAt != nil && !current.UpdatedAt.Equal(*req.ExpectedUpdatedAt) {
		s.metrics.StatusRejection("conflict")
		return nil, errors.Conflict("appointment was modified by someone else, reload and retry", repository.ErrPreconditionFailed)
	}

	if !current.Status.CanTransitionTo(req.Status) {
		s.metrics.StatusRejection("invalid_transition")
		return nil, errors.InvalidTransition(fmt.Sprintf("cannot change appointment status from %s to %s", current.Status, req.Status))
	}

	now := s.cfg.Clock()
	update := &model.StatusUpdate{
		ID:                id,
		FromStatus:        current.Status,
		ToStatus:          req.Status,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
		UpdatedAt:         now,
	}
	if err := s.repo.UpdateStatus(ctx, update); err != nil {
		if stderrors.Is(err, repository.ErrPreconditionFailed) {
			s.metrics.StatusRejection("conflict")
			return nil, errors.Conflict("appointment was modified by someone else, reload and retry", err)
		}
		return nil, errors.Unavailable("failed to update appointment status", err)
	}

	s.metrics.StatusTransition(string(current.Status), string(req.Status))
	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("from", string(current.Status)).
		Str("to", string(req.Status)).
		Msg("appointment status changed")

	event := model.AppointmentEvent{
		Type:          model.EventAppointmentStatusChanged,
		AppointmentID: id,
		Status:        req.Status,
		PreviousState: current.Status,
		OccurredAt:    now,
	}
	if err := s.publisher.Publish(ctx, model.AppointmentEventsChannel, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish appointment event")
	}

	// The write is committed from here on; a failed re-read must not be
	// reported as a failed update.
	change := &StatusChange{}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", id.String()).Msg("failed to re-read appointment after status change")
		written := *current
		written.Status = req.Status
		written.UpdatedAt = now
		updated = &written
		change.Stale = true
	}
	change.Appointment = updated

	listing, err := s.repo.List(ctx, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to reload appointments after status change")
		listing = nil
		change.Stale = true
	}
	change.Appointments = listing
	return change, nil
}

// ListForPatient splits a patient's appointments for the portal. Upcoming
// excludes cancelled visits; past includes completed ones regardless of date.
func (s *Service) ListForPatient(ctx context.Context, patientEmail string) (*model.PatientAppointments, error) {
	appointments, err := s.repo.List(ctx, &model.AppointmentFilters{PatientEmail: patientEmail})
	if err != nil {
		return nil, errors.Unavailable("failed to load appointments", err)
	}

	today := s.cfg.Clock().In(s.cfg.Location).Format(model.DateLayout)
	result := &model.PatientAppointments{
		Upcoming: []*model.Appointment{},
		Past:     []*model.Appointment{},
	}
	for _, apt := range appointments {
		if apt.AppointmentDate >= today && apt.Status != model.AppointmentStatusCancelled {
			result.Upcoming = append(result.Upcoming, apt)
		}
		if apt.AppointmentDate < today || apt.Status == model.AppointmentStatusCompleted {
			result.Past = append(result.Past, apt)
		}
	}
	return result, nil
}

// Notify sends one of the appointment emails to the patient.
func (s *Service) Notify(ctx context.Context, id uuid.UUID, req model.NotifyAppointmentRequest) error {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	to := email.Recipient{Name: apt.PatientName, Email: apt.PatientEmail}
	var n email.Notification
	switch req.Type {
	case model.NoticeConfirmation:
		var duration int
		if svc, ok := model.LookupService(apt.ServiceType); ok {
			duration = svc.Duration
		}
		n = email.AppointmentConfirmation{
			To: to, Date: apt.AppointmentDate, Time: apt.AppointmentTime,
			Service: apt.ServiceType, Dentist: req.Dentist, Duration: duration,
		}
	case model.NoticeReminder24h:
		n = email.Reminder24h{To: to, Date: apt.AppointmentDate, Time: apt.AppointmentTime, Service: apt.ServiceType}
	case model.NoticeReminder2h:
		n = email.Reminder2h{To: to, Time: apt.AppointmentTime, Service: apt.ServiceType}
	case model.NoticeFollowUp:
		n = email.FollowUp{To: to, Service: apt.ServiceType, LoyaltyPoints: req.LoyaltyPoints}
	default:
		return errors.BadRequest(fmt.Sprintf("unknown notification type %q", req.Type), nil)
	}

	if err := s.notifier.Send(ctx, n); err != nil {
		return errors.Unavailable("failed to send email", err)
	}
	return nil
}
