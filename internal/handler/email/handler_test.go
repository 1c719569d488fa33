package email

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makhanda-smiles/portal-api/internal/email"
	"github.com/makhanda-smiles/portal-api/internal/handler/testutil"
)

type recordingNotifier struct {
	sent    []email.Notification
	batches [][]email.Notification
	err     error
}

func (n *recordingNotifier) Send(_ context.Context, msg email.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) SendBatch(_ context.Context, batch []email.Notification) email.BatchResult {
	n.batches = append(n.batches, batch)
	return email.BatchResult{Sent: len(batch)}
}

func setup(n *recordingNotifier) http.Handler {
	r, api := testutil.NewRouter()
	NewHandler(n).RegisterRoutes(api)
	return r
}

func TestRespondToSupport(t *testing.T) {
	n := &recordingNotifier{}
	w, _ := testutil.Do(t, setup(n), testutil.Request{Method: http.MethodPost, Path: "/api/v1/support/respond", Body: map[string]string{
		"name": "Kagiso", "email": "kagiso@example.com", "ticket_id": "T-42", "message": "Your invoice is attached.",
	}})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, n.sent, 1)
	msg, ok := n.sent[0].(email.SupportResponse)
	require.True(t, ok)
	assert.Equal(t, "T-42", msg.TicketID)
	assert.Equal(t, "kagiso@example.com", msg.Recipient().Email)

	w, _ = testutil.Do(t, setup(n), testutil.Request{Method: http.MethodPost, Path: "/api/v1/support/respond", Body: map[string]string{
		"email": "kagiso@example.com", "message": "missing ticket",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := &recordingNotifier{err: errors.New("provider down")}
	w, _ = testutil.Do(t, setup(failing), testutil.Request{Method: http.MethodPost, Path: "/api/v1/support/respond", Body: map[string]string{
		"email": "kagiso@example.com", "ticket_id": "T-43", "message": "hello",
	}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSendBatch(t *testing.T) {
	n := &recordingNotifier{}
	body := map[string]interface{}{"emails": []map[string]interface{}{
		{"type": "appointment_reminder_24h", "to": map[string]string{"name": "A", "email": "a@example.com"}, "date": "2026-03-11", "time": "09:00 AM", "service": "Teeth Cleaning"},
		{"type": "lead_response", "to": map[string]string{"name": "B", "email": "b@example.com"}, "message": "Welcome"},
	}}

	w, resp := testutil.Do(t, setup(n), testutil.Request{Method: http.MethodPost, Path: "/api/v1/emails/batch", Body: body})
	require.Equal(t, http.StatusOK, w.Code)
	var result email.BatchResult
	resp.Decode(t, &result)
	assert.Equal(t, email.BatchResult{Sent: 2}, result)
	require.Len(t, n.batches, 1)
	assert.IsType(t, email.Reminder24h{}, n.batches[0][0])
	assert.IsType(t, email.LeadResponse{}, n.batches[0][1])
}

func TestSendBatchRejectsBeforeSending(t *testing.T) {
	n := &recordingNotifier{}
	r := setup(n)

	w, _ := testutil.Do(t, r, testutil.Request{Method: http.MethodPost, Path: "/api/v1/emails/batch", Body: map[string]interface{}{
		"emails": []map[string]interface{}{
			{"type": "lead_response", "to": map[string]string{"email": "b@example.com"}},
			{"type": "birthday_card", "to": map[string]string{"email": "c@example.com"}},
		},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = testutil.Do(t, r, testutil.Request{Method: http.MethodPost, Path: "/api/v1/emails/batch", Body: map[string]interface{}{"emails": []interface{}{}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, n.batches)
}
