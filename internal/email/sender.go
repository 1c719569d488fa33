package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers one rendered field bag through the shared template.
type Sender interface {
	Send(ctx context.Context, fields Fields) error
}

var ErrNotConfigured = errors.New("email sender not configured")

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends through a SendGrid dynamic template. The field bag
// becomes the template's dynamic data.
type SendGridSender struct {
	client     sendGridClient
	templateID string
	fromEmail  string
	fromName   string
	logger     zerolog.Logger
}

type SendGridConfig struct {
	APIKey     string
	TemplateID string
	FromEmail  string
	FromName   string
}

func NewSendGridSender(cfg SendGridConfig, logger zerolog.Logger) *SendGridSender {
	return newSendGridSender(sendgrid.NewSendClient(cfg.APIKey), cfg, logger)
}

func newSendGridSender(client sendGridClient, cfg SendGridConfig, logger zerolog.Logger) *SendGridSender {
	if cfg.TemplateID == "" {
		cfg.TemplateID = TemplateID
	}
	return &SendGridSender{
		client:     client,
		templateID: cfg.TemplateID,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		logger:     logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, fields Fields) error {
	if s.client == nil {
		return ErrNotConfigured
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.SetTemplateID(s.templateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(fields.ToName, fields.ToEmail))
	p.Subject = fields.Subject
	for k, v := range fields.Map() {
		p.SetDynamicTemplateData(k, v)
	}
	message.AddPersonalizations(p)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send via sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error().
			Int("status", response.StatusCode).
			Str("body", response.Body).
			Str("template_type", string(fields.TemplateType)).
			Msg("sendgrid returned error status")
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// StubSender logs instead of sending. It is used when no provider is configured.
type StubSender struct {
	logger zerolog.Logger
}

func NewStubSender(logger zerolog.Logger) *StubSender {
	return &StubSender{logger: logger}
}

func (s *StubSender) Send(ctx context.Context, fields Fields) error {
	s.logger.Info().
		Str("to", fields.ToEmail).
		Str("subject", fields.Subject).
		Str("template_type", string(fields.TemplateType)).
		Msg("stub email sender: would send email")
	return nil
}
