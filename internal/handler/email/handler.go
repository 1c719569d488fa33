package email

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/makhanda-smiles/portal-api/internal/email"
	"github.com/makhanda-smiles/portal-api/internal/handler"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

type Notifier interface {
	Send(ctx context.Context, n email.Notification) error
	SendBatch(ctx context.Context, batch []email.Notification) email.BatchResult
}

type SupportResponseRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	TicketID string `json:"ticket_id" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type BatchRequest struct {
	Emails []email.Request `json:"emails" binding:"required,min=1,max=100,dive"`
}

// Handler exposes the admin email tools.
type Handler struct {
	notifier Notifier
}

func NewHandler(notifier Notifier) *Handler {
	return &Handler{notifier: notifier}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/support/respond", h.RespondToSupport)
	r.POST("/emails/batch", h.SendBatch)
}

func (h *Handler) RespondToSupport(c *gin.Context) {
	var req SupportResponseRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	n := email.SupportResponse{
		To:       email.Recipient{Name: req.Name, Email: req.Email},
		TicketID: req.TicketID,
		Message:  req.Message,
	}
	if err := h.notifier.Send(c.Request.Context(), n); err != nil {
		httputil.RespondWithError(c, errors.Unavailable("failed to send email", err))
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"sent": true, "ticket_id": req.TicketID})
}

// SendBatch sends every email in the request. Individual failures are
// counted, not returned.
func (h *Handler) SendBatch(c *gin.Context) {
	var req BatchRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	batch := make([]email.Notification, 0, len(req.Emails))
	for i, r := range req.Emails {
		n, err := r.Notification()
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest(fmt.Sprintf("emails[%d]: %v", i, err), err))
			return
		}
		batch = append(batch, n)
	}

	httputil.RespondWithSuccess(c, h.notifier.SendBatch(c.Request.Context(), batch))
}
