package email

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSendGrid struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSendGrid) SendWithContext(ctx context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSender_DynamicTemplate(t *testing.T) {
	client := &fakeSendGrid{status: 202}
	s := newSendGridSender(client, SendGridConfig{FromEmail: "hello@clinic.test", FromName: "Clinic"}, zerolog.Nop())

	fields := Flatten(LeadResponse{To: jane, Message: "Hi Jane"})
	require.NoError(t, s.Send(context.Background(), fields))

	require.Len(t, client.sent, 1)
	m := client.sent[0]
	assert.Equal(t, TemplateID, m.TemplateID)
	assert.Equal(t, "hello@clinic.test", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "jane@example.com", p.To[0].Address)
	assert.Equal(t, "Welcome to Makhanda Smiles", p.Subject)
	assert.Equal(t, "lead_response", p.DynamicTemplateData["template_type"])
	assert.Equal(t, "Hi Jane", p.DynamicTemplateData["custom_content"])
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	s := newSendGridSender(&fakeSendGrid{status: 401}, SendGridConfig{}, zerolog.Nop())
	assert.Error(t, s.Send(context.Background(), Flatten(LeadResponse{To: jane})))

	s = newSendGridSender(&fakeSendGrid{err: errors.New("dial tcp: timeout")}, SendGridConfig{}, zerolog.Nop())
	assert.Error(t, s.Send(context.Background(), Flatten(LeadResponse{To: jane})))
}

type fakeDialer struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return f.err
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d, fromEmail: "hello@clinic.test", fromName: "Clinic"}

	fields := Flatten(SupportResponse{To: jane, TicketID: "T-7", Message: "We fixed it."})
	require.NoError(t, s.Send(context.Background(), fields))

	require.Len(t, d.messages, 1)
	assert.Equal(t, []string{"Support Response - Ticket #T-7"}, d.messages[0].GetHeader("Subject"))
	assert.Equal(t, []string{"support_ticket_response"}, d.messages[0].GetHeader("X-Template-Type"))
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	s := &SMTPSender{dialer: d}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, Flatten(LeadResponse{To: jane})), context.Canceled)
	assert.Empty(t, d.messages)
}

func TestRender(t *testing.T) {
	text, err := Render(Flatten(AppointmentConfirmation{
		To: jane, Date: "2026-03-12", Time: "10:00 AM", Service: "Teeth Whitening", Dentist: "Dr. Mokoena",
	}))
	require.NoError(t, err)

	assert.Contains(t, text, "Dear Jane Doe,")
	assert.Contains(t, text, "Date:     2026-03-12")
	assert.Contains(t, text, "Dentist:  Dr. Mokoena")
	assert.Contains(t, text, "Makhanda, South Africa")

	text, err = Render(Flatten(LeadResponse{To: jane, Message: "Welcome aboard"}))
	require.NoError(t, err)
	assert.NotContains(t, text, "Appointment details")
	assert.Contains(t, text, "Welcome aboard")
}
