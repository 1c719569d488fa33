package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/handler"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/service/appointment"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

type Service interface {
	List(ctx context.Context, f model.StatusFilter) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req model.UpdateStatusRequest) (*appointment.StatusChange, error)
	Notify(ctx context.Context, id uuid.UUID, req model.NotifyAppointmentRequest) error
}

// Subscriber delivers raw appointment events.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Handler serves the admin appointment board.
type Handler struct {
	svc       Service
	events    Subscriber
	keepAlive time.Duration
}

func NewHandler(svc Service, events Subscriber, keepAlive time.Duration) *Handler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &Handler{svc: svc, events: events, keepAlive: keepAlive}
}

// RegisterRoutes mounts the board on an admin-only group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.PATCH("/:id/status", h.UpdateStatus)
		appointments.POST("/:id/notify", h.Notify)
	}
}

// RegisterStream mounts the event stream. It is kept apart from
// RegisterRoutes so it can sit outside the request timeout.
func (h *Handler) RegisterStream(r *gin.RouterGroup) {
	r.GET("/appointments/events", h.StreamEvents)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filter := model.StatusFilter(c.DefaultQuery("status", string(model.StatusFilterAll)))

	appointments, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	change, err := h.svc.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, change)
}

func (h *Handler) Notify(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.NotifyAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.svc.Notify(c.Request.Context(), id, req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"sent": true, "type": req.Type})
}

// StreamEvents relays appointment events as server-sent events until the
// client goes away.
func (h *Handler) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	events, err := h.events.Subscribe(ctx, model.AppointmentEventsChannel)
	if err != nil {
		httputil.RespondWithError(c, errors.Unavailable("event stream unavailable", err))
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	// The loop ends on the request context, so the writer never needs to
	// support CloseNotify.
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			var event model.AppointmentEvent
			if err := json.Unmarshal(msg, &event); err != nil {
				continue
			}
			c.SSEvent(event.Type, event)
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
		}
		c.Writer.Flush()
	}
}
