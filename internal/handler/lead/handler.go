package lead

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/handler"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

type Service interface {
	Create(ctx context.Context, req model.CreateLeadRequest) (*model.Lead, error)
	List(ctx context.Context) ([]*model.Lead, error)
	Respond(ctx context.Context, id uuid.UUID, message string) (*model.Lead, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public contact form.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/leads", h.CreateLead)
}

// RegisterAdminRoutes mounts lead follow-up on an admin-only group.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	leads := r.Group("/leads")
	{
		leads.GET("", h.ListLeads)
		leads.POST("/:id/respond", h.RespondToLead)
	}
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req model.CreateLeadRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, lead)
}

func (h *Handler) ListLeads(c *gin.Context) {
	leads, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, leads)
}

func (h *Handler) RespondToLead(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "lead")
	if !ok {
		return
	}
	var req model.RespondLeadRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	lead, err := h.svc.Respond(c.Request.Context(), id, req.Message)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, lead)
}
