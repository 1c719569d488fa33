package booking

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/makhanda-smiles/portal-api/internal/handler"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

type Service interface {
	Start() (model.BookingState, error)
	Get(id string) (model.BookingState, error)
	SelectService(id, name string) (model.BookingState, error)
	SetDateTime(id, date, slot string) (model.BookingState, error)
	Continue(id string) (model.BookingState, error)
	SetContact(id string, req model.SetContactRequest) (model.BookingState, error)
	Back(id string) (model.BookingState, error)
	Submit(ctx context.Context, id string) (model.BookingState, error)
	Discard(id string) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.Start)
		bookings.GET("/:id", h.Get)
		bookings.PUT("/:id/service", h.SelectService)
		bookings.PUT("/:id/date-time", h.SetDateTime)
		bookings.POST("/:id/continue", h.Continue)
		bookings.PUT("/:id/contact", h.SetContact)
		bookings.POST("/:id/back", h.Back)
		bookings.POST("/:id/submit", h.Submit)
		bookings.DELETE("/:id", h.Discard)
	}
}

func (h *Handler) Start(c *gin.Context) {
	state, err := h.svc.Start()
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, state)
}

func (h *Handler) Get(c *gin.Context) {
	respond(c)(h.svc.Get(c.Param("id")))
}

func (h *Handler) SelectService(c *gin.Context) {
	var req model.SelectServiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	respond(c)(h.svc.SelectService(c.Param("id"), req.Service))
}

func (h *Handler) SetDateTime(c *gin.Context) {
	var req model.SetDateTimeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	respond(c)(h.svc.SetDateTime(c.Param("id"), req.Date, req.Time))
}

func (h *Handler) Continue(c *gin.Context) {
	respond(c)(h.svc.Continue(c.Param("id")))
}

func (h *Handler) SetContact(c *gin.Context) {
	var req model.SetContactRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	respond(c)(h.svc.SetContact(c.Param("id"), req))
}

func (h *Handler) Back(c *gin.Context) {
	respond(c)(h.svc.Back(c.Param("id")))
}

func (h *Handler) Submit(c *gin.Context) {
	respond(c)(h.svc.Submit(c.Request.Context(), c.Param("id")))
}

func (h *Handler) Discard(c *gin.Context) {
	if err := h.svc.Discard(c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respond(c *gin.Context) func(model.BookingState, error) {
	return func(state model.BookingState, err error) {
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, state)
	}
}
