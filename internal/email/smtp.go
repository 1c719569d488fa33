package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

// body is the local rendition of the shared template for SMTP delivery.
var body = template.Must(template.New(TemplateID).Parse(`Dear {{.ToName}},

{{.CustomContent}}
{{- if .FollowUpMessage}}

{{.FollowUpMessage}}
{{- end}}
{{- if eq (print .TemplateType) "appointment_confirmation" "appointment_reminder_24h" "appointment_reminder_2h"}}

Appointment details
  Service:  {{.ServiceType}}
  Date:     {{.AppointmentDate}}
  Time:     {{.AppointmentTime}}
  Duration: {{.AppointmentDuration}}
  Dentist:  {{.DentistName}}
{{- end}}
{{- if .TicketID}}

Ticket: #{{.TicketID}}
{{- end}}

Makhanda Smiles
{{.PracticeAddress}}
{{.PracticePhone}}
`))

// Render returns the plain-text body for fields.
func Render(fields Fields) (string, error) {
	var buf bytes.Buffer
	if err := body.Execute(&buf, fields); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender renders the template locally and sends it over SMTP.
type SMTPSender struct {
	dialer    dialer
	fromEmail string
	fromName  string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *SMTPSender) Send(ctx context.Context, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text, err := Render(fields)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	m.SetAddressHeader("To", fields.ToEmail, fields.ToName)
	m.SetHeader("Subject", fields.Subject)
	m.SetHeader("X-Template-Type", string(fields.TemplateType))
	m.SetBody("text/plain", text)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send via smtp: %w", err)
	}
	return nil
}
