package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

// Handler serves the clinic's read-only reference data.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/services", h.ListServices)
	r.GET("/time-slots", h.ListTimeSlots)
}

func (h *Handler) ListServices(c *gin.Context) {
	httputil.RespondWithSuccess(c, model.Services())
}

func (h *Handler) ListTimeSlots(c *gin.Context) {
	httputil.RespondWithSuccess(c, model.TimeSlots())
}
