package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/messaging"
	"github.com/makhanda-smiles/portal-api/pkg/metrics"
)

type Config struct {
	Location *time.Location
	Clock    Clock
	// ConfirmedRetention is how long a confirmed wizard stays readable. Open
	// wizards never expire.
	ConfirmedRetention time.Duration
	// MaxOpenWizards caps the wizards held at once. Start fails with
	// Unavailable past it.
	MaxOpenWizards int
}

// Service holds open booking wizards in memory.
type Service struct {
	mu        sync.Mutex
	wizards   *cache.Cache
	repo      Persister
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	cfg       Config
}

func NewService(repo Persister, publisher messaging.Publisher, m *metrics.Metrics, logger zerolog.Logger, cfg Config) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ConfirmedRetention <= 0 {
		cfg.ConfirmedRetention = time.Hour
	}
	if cfg.MaxOpenWizards <= 0 {
		cfg.MaxOpenWizards = 10000
	}
	return &Service{
		wizards:   cache.New(cache.NoExpiration, 10*time.Minute),
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start opens a new wizard at the service selection step.
func (s *Service) Start() (model.BookingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wizards.DeleteExpired()
	if n := s.wizards.ItemCount(); n >= s.cfg.MaxOpenWizards {
		s.logger.Warn().Int("open", n).Msg("booking wizard limit reached")
		return model.BookingState{}, errors.Unavailable("too many bookings in progress, try again shortly", nil)
	}

	w := NewWizard(uuid.New().String(), s.cfg.Clock, s.cfg.Location)
	s.wizards.Set(w.ID(), w, cache.NoExpiration)
	s.metrics.SetWizardsOpen(s.wizards.ItemCount())
	return w.State(), nil
}

func (s *Service) Get(id string) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}
	return w.State(), nil
}

func (s *Service) SelectService(id, name string) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}
	return w.SelectService(name)
}

func (s *Service) SetDateTime(id, date, slot string) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}
	return w.SetDateTime(date, slot)
}

func (s *Service) Continue(id string) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}
	return w.Continue()
}

func (s *Service) SetContact(id string, req model.SetContactRequest) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}
	return w.SetContact(req.FullName, req.Email, req.Phone, req.Notes)
}

func (s *Service) Back(id string) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}
	return w.Back()
}

// Submit persists the wizard's draft. A confirmed wizard is kept for
// ConfirmedRetention so the receipt can be re-read.
func (s *Service) Submit(ctx context.Context, id string) (model.BookingState, error) {
	w, err := s.wizard(id)
	if err != nil {
		return model.BookingState{}, err
	}

	state, err := w.Submit(ctx, s.repo)
	if err != nil {
		if errors.Is(err, errors.ErrUnavailable) {
			s.metrics.BookingFailed()
			s.logger.Warn().Err(err).Str("wizard_id", id).Msg("booking submission rejected")
		}
		return state, err
	}

	s.metrics.BookingSubmitted()
	s.wizards.Set(id, w, s.cfg.ConfirmedRetention)
	s.logger.Info().
		Str("wizard_id", id).
		Str("appointment_id", state.Receipt.ID.String()).
		Str("service", state.Receipt.ServiceType).
		Msg("appointment booked")

	event := model.AppointmentEvent{
		Type:          model.EventAppointmentCreated,
		AppointmentID: state.Receipt.ID,
		Status:        state.Receipt.Status,
		OccurredAt:    state.Receipt.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, model.AppointmentEventsChannel, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish appointment event")
	}
	return state, nil
}

// Discard drops a wizard. Nothing was persisted unless it was confirmed.
func (s *Service) Discard(id string) error {
	if _, err := s.wizard(id); err != nil {
		return err
	}
	s.wizards.Delete(id)
	s.metrics.SetWizardsOpen(s.wizards.ItemCount())
	return nil
}

func (s *Service) wizard(id string) (*Wizard, error) {
	v, ok := s.wizards.Get(id)
	if !ok {
		return nil, errors.NotFound("booking", nil)
	}
	return v.(*Wizard), nil
}
