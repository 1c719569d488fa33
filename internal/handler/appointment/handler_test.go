package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makhanda-smiles/portal-api/internal/handler/testutil"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/service/appointment"
	apperrors "github.com/makhanda-smiles/portal-api/pkg/errors"
)

type stubService struct {
	appointments []*model.Appointment
	updateErr    error
	notifyErr    error

	gotFilter model.StatusFilter
	gotUpdate model.UpdateStatusRequest
	gotNotify model.NotifyAppointmentRequest
}

func (s *stubService) List(_ context.Context, f model.StatusFilter) ([]*model.Appointment, error) {
	s.gotFilter = f
	if !f.Valid() {
		return nil, apperrors.BadRequest("unknown status filter", nil)
	}
	return appointment.Filter(s.appointments, f), nil
}

func (s *stubService) UpdateStatus(_ context.Context, id uuid.UUID, req model.UpdateStatusRequest) (*appointment.StatusChange, error) {
	s.gotUpdate = req
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	apt := &model.Appointment{ID: id, Status: req.Status}
	return &appointment.StatusChange{Appointment: apt, Appointments: []*model.Appointment{apt}}, nil
}

func (s *stubService) Notify(_ context.Context, _ uuid.UUID, req model.NotifyAppointmentRequest) error {
	s.gotNotify = req
	return s.notifyErr
}

type stubSubscriber struct {
	events chan []byte
	err    error
}

func (s *stubSubscriber) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func setup(svc *stubService, sub *stubSubscriber) http.Handler {
	r, api := testutil.NewRouter()
	h := NewHandler(svc, sub, time.Hour)
	admin := api.Group("/admin")
	h.RegisterRoutes(admin)
	h.RegisterStream(admin)
	return r
}

func TestListAppointments(t *testing.T) {
	svc := &stubService{appointments: []*model.Appointment{
		{ID: uuid.New(), Status: model.AppointmentStatusPending},
		{ID: uuid.New(), Status: model.AppointmentStatusCompleted},
		{ID: uuid.New(), Status: model.AppointmentStatusCancelled},
	}}
	r := setup(svc, &stubSubscriber{})

	w, resp := testutil.Do(t, r, testutil.Request{Method: http.MethodGet, Path: "/api/v1/admin/appointments"})
	require.Equal(t, http.StatusOK, w.Code)
	var all []*model.Appointment
	resp.Decode(t, &all)
	assert.Len(t, all, 3)
	assert.Equal(t, model.StatusFilterAll, svc.gotFilter)

	w, resp = testutil.Do(t, r, testutil.Request{Method: http.MethodGet, Path: "/api/v1/admin/appointments?status=completed"})
	require.Equal(t, http.StatusOK, w.Code)
	var completed []*model.Appointment
	resp.Decode(t, &completed)
	require.Len(t, completed, 1)
	assert.Equal(t, model.AppointmentStatusCompleted, completed[0].Status)

	w, _ = testutil.Do(t, r, testutil.Request{Method: http.MethodGet, Path: "/api/v1/admin/appointments?status=archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	id := uuid.New()
	path := "/api/v1/admin/appointments/" + id.String() + "/status"

	t.Run("success", func(t *testing.T) {
		svc := &stubService{}
		expected := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
		w, resp := testutil.Do(t, setup(svc, &stubSubscriber{}), testutil.Request{
			Method: http.MethodPatch, Path: path,
			Body: map[string]interface{}{"status": "confirmed", "expected_updated_at": expected},
		})

		require.Equal(t, http.StatusOK, w.Code)
		var change appointment.StatusChange
		resp.Decode(t, &change)
		assert.Equal(t, model.AppointmentStatusConfirmed, change.Appointment.Status)
		require.NotNil(t, svc.gotUpdate.ExpectedUpdatedAt)
		assert.True(t, expected.Equal(*svc.gotUpdate.ExpectedUpdatedAt))
	})

	tests := []struct {
		name       string
		body       map[string]interface{}
		err        error
		wantStatus int
	}{
		{"unknown status", map[string]interface{}{"status": "archived"}, nil, http.StatusBadRequest},
		{"missing status", map[string]interface{}{}, nil, http.StatusBadRequest},
		{"invalid transition", map[string]interface{}{"status": "pending"}, apperrors.InvalidTransition("cannot change"), http.StatusUnprocessableEntity},
		{"conflict", map[string]interface{}{"status": "confirmed"}, apperrors.Conflict("modified", nil), http.StatusConflict},
		{"not found", map[string]interface{}{"status": "confirmed"}, apperrors.NotFound("appointment", nil), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{updateErr: tt.err}
			w, resp := testutil.Do(t, setup(svc, &stubSubscriber{}), testutil.Request{Method: http.MethodPatch, Path: path, Body: tt.body})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "error", resp.Status)
		})
	}

	t.Run("malformed id", func(t *testing.T) {
		w, _ := testutil.Do(t, setup(&stubService{}, &stubSubscriber{}), testutil.Request{
			Method: http.MethodPatch, Path: "/api/v1/admin/appointments/nope/status",
			Body: map[string]interface{}{"status": "confirmed"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotify(t *testing.T) {
	path := "/api/v1/admin/appointments/" + uuid.NewString() + "/notify"

	svc := &stubService{}
	w, _ := testutil.Do(t, setup(svc, &stubSubscriber{}), testutil.Request{
		Method: http.MethodPost, Path: path,
		Body: map[string]interface{}{"type": "followup", "loyalty_points": 50},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.NoticeFollowUp, svc.gotNotify.Type)
	assert.Equal(t, 50, svc.gotNotify.LoyaltyPoints)

	w, _ = testutil.Do(t, setup(&stubService{}, &stubSubscriber{}), testutil.Request{
		Method: http.MethodPost, Path: path, Body: map[string]interface{}{"type": "birthday"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := &stubService{notifyErr: apperrors.Unavailable("failed to send email", errors.New("smtp down"))}
	w, _ = testutil.Do(t, setup(failing, &stubSubscriber{}), testutil.Request{
		Method: http.MethodPost, Path: path, Body: map[string]interface{}{"type": "reminder_2h"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStreamEvents(t *testing.T) {
	event := model.AppointmentEvent{
		Type:          model.EventAppointmentStatusChanged,
		AppointmentID: uuid.New(),
		Status:        model.AppointmentStatusConfirmed,
		PreviousState: model.AppointmentStatusPending,
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	events := make(chan []byte, 2)
	events <- []byte("not json")
	events <- raw
	close(events)

	w, _ := testutil.Do(t, setup(&stubService{}, &stubSubscriber{events: events}), testutil.Request{
		Method: http.MethodGet, Path: "/api/v1/admin/appointments/events",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "event:"+model.EventAppointmentStatusChanged)
	assert.Contains(t, w.Body.String(), event.AppointmentID.String())
}

func TestStreamEventsUnavailable(t *testing.T) {
	w, _ := testutil.Do(t, setup(&stubService{}, &stubSubscriber{err: errors.New("redis down")}), testutil.Request{
		Method: http.MethodGet, Path: "/api/v1/admin/appointments/events",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStreamEventsEndsWithClient(t *testing.T) {
	r, api := testutil.NewRouter()
	h := NewHandler(&stubService{}, &stubSubscriber{events: make(chan []byte)}, 10*time.Millisecond)
	h.RegisterStream(api.Group("/admin"))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after the client left")
	}
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:ping")
}
