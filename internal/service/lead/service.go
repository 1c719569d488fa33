package lead

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/internal/email"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
)

type Notifier interface {
	Send(ctx context.Context, n email.Notification) error
}

type Service struct {
	repo     repository.LeadRepository
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo repository.LeadRepository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Create records a contact form message as a new lead and acknowledges it.
// A failed acknowledgement does not fail the request.
func (s *Service) Create(ctx context.Context, req model.CreateLeadRequest) (*model.Lead, error) {
	notes := req.Message
	if req.Subject != "" {
		notes = "Subject: " + req.Subject + "\n\n" + req.Message
	}

	lead := &model.Lead{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Source:    model.LeadSourceContactForm,
		Status:    model.LeadStatusNew,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, errors.Unavailable("failed to send message, please try again", err)
	}

	ack := email.ContactAcknowledgement{
		To:      email.Recipient{Name: lead.Name, Email: lead.Email},
		Subject: req.Subject,
	}
	if err := s.notifier.Send(ctx, ack); err != nil {
		s.logger.Warn().Err(err).Str("lead_id", lead.ID.String()).Msg("contact acknowledgement not sent")
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Lead, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Unavailable("failed to load leads", err)
	}
	return leads, nil
}

// Respond emails the lead and marks it contacted.
func (s *Service) Respond(ctx context.Context, id uuid.UUID, message string) (*model.Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("lead", err)
		}
		return nil, errors.Unavailable("failed to load lead", err)
	}

	n := email.LeadResponse{
		To:      email.Recipient{Name: lead.Name, Email: lead.Email},
		Message: message,
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		return nil, errors.Unavailable("failed to send email", err)
	}

	if err := s.repo.UpdateStatus(ctx, id, model.LeadStatusContacted); err != nil {
		return nil, errors.Unavailable("failed to update lead", err)
	}
	lead.Status = model.LeadStatusContacted
	return lead, nil
}
