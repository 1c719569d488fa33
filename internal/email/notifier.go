package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/makhanda-smiles/portal-api/pkg/metrics"
)

const DefaultBatchPause = 100 * time.Millisecond

type NotifierConfig struct {
	// BatchPause spaces consecutive sends in a batch.
	BatchPause time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open.
	OpenTimeout time.Duration
}

type BatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Notifier maps notifications to the flat field contract and sends them,
// reporting success as a bool at the call site.
type Notifier struct {
	sender  Sender
	cb      *gobreaker.CircuitBreaker
	pause   time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewNotifier(sender Sender, m *metrics.Metrics, logger zerolog.Logger, cfg NotifierConfig) *Notifier {
	if cfg.BatchPause <= 0 {
		cfg.BatchPause = DefaultBatchPause
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "email",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Notifier{
		sender:  sender,
		cb:      cb,
		pause:   cfg.BatchPause,
		metrics: m,
		logger:  logger,
	}
}

// Send delivers n and returns the provider's error, if any.
func (s *Notifier) Send(ctx context.Context, n Notification) error {
	fields := Flatten(n)
	if fields.ToEmail == "" {
		return fmt.Errorf("notification %s has no recipient", n.Type())
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.sender.Send(ctx, fields)
	})
	s.metrics.EmailResult(string(n.Type()), err == nil)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("email provider unavailable: %w", err)
		}
		s.logger.Error().Err(err).
			Str("template_type", string(n.Type())).
			Str("to", fields.ToEmail).
			Msg("email sending failed")
		return err
	}

	s.logger.Info().
		Str("template_type", string(n.Type())).
		Str("to", fields.ToEmail).
		Msg("email sent")
	return nil
}

// Notify sends n and reports whether it was delivered.
func (s *Notifier) Notify(ctx context.Context, n Notification) bool {
	return s.Send(ctx, n) == nil
}

// SendBatch sends each notification in order, paced by the batch pause.
// A cancelled context counts the unsent remainder as failed.
func (s *Notifier) SendBatch(ctx context.Context, batch []Notification) BatchResult {
	var result BatchResult
	limiter := rate.NewLimiter(rate.Every(s.pause), 1)

	for i, n := range batch {
		if err := limiter.Wait(ctx); err != nil {
			result.Failed += len(batch) - i
			break
		}
		if s.Notify(ctx, n) {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	return result
}
