package lead

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makhanda-smiles/portal-api/internal/email"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	apperrors "github.com/makhanda-smiles/portal-api/pkg/errors"
)

type memoryLeads struct {
	leads map[uuid.UUID]*model.Lead
	err   error
}

func (m *memoryLeads) Create(_ context.Context, l *model.Lead) error {
	if m.err != nil {
		return m.err
	}
	m.leads[l.ID] = l
	return nil
}

func (m *memoryLeads) Get(_ context.Context, id uuid.UUID) (*model.Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

func (m *memoryLeads) List(context.Context) ([]*model.Lead, error) {
	out := []*model.Lead{}
	for _, l := range m.leads {
		out = append(out, l)
	}
	return out, nil
}

func (m *memoryLeads) UpdateStatus(_ context.Context, id uuid.UUID, status model.LeadStatus) error {
	m.leads[id].Status = status
	return nil
}

type recordingNotifier struct {
	sent []email.Notification
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, n email.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

func TestCreate(t *testing.T) {
	repo := &memoryLeads{leads: map[uuid.UUID]*model.Lead{}}
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, zerolog.Nop())

	lead, err := svc.Create(context.Background(), model.CreateLeadRequest{
		Name: "Jane Doe", Email: "jane@example.com", Subject: "Braces", Message: "How much?",
	})
	require.NoError(t, err)
	assert.Equal(t, model.LeadSourceContactForm, lead.Source)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.Contains(t, lead.Notes, "How much?")

	require.Len(t, notifier.sent, 1)
	ack := notifier.sent[0].(email.ContactAcknowledgement)
	assert.Equal(t, "Braces", ack.Subject)
}

func TestCreate_AckFailureStillAccepted(t *testing.T) {
	repo := &memoryLeads{leads: map[uuid.UUID]*model.Lead{}}
	svc := NewService(repo, &recordingNotifier{err: errors.New("smtp down")}, zerolog.Nop())

	_, err := svc.Create(context.Background(), model.CreateLeadRequest{Name: "J", Email: "j@example.com", Message: "hi"})
	require.NoError(t, err)
	assert.Len(t, repo.leads, 1)
}

func TestCreate_RepoFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(&memoryLeads{err: errors.New("down")}, notifier, zerolog.Nop())

	_, err := svc.Create(context.Background(), model.CreateLeadRequest{Name: "J", Email: "j@example.com", Message: "hi"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnavailable))
	assert.Empty(t, notifier.sent)
}

func TestRespond(t *testing.T) {
	id := uuid.New()
	repo := &memoryLeads{leads: map[uuid.UUID]*model.Lead{
		id: {ID: id, Name: "Jane", Email: "jane@example.com", Status: model.LeadStatusNew},
	}}
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, zerolog.Nop())

	lead, err := svc.Respond(context.Background(), id, "Welcome!")
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusContacted, lead.Status)
	assert.Equal(t, email.LeadResponse{To: email.Recipient{Name: "Jane", Email: "jane@example.com"}, Message: "Welcome!"}, notifier.sent[0])

	_, err = svc.Respond(context.Background(), uuid.New(), "hi")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
