package portal

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/makhanda-smiles/portal-api/internal/handler"
	"github.com/makhanda-smiles/portal-api/internal/middleware"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/service/document"
	"github.com/makhanda-smiles/portal-api/internal/session"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

type Appointments interface {
	ListForPatient(ctx context.Context, patientEmail string) (*model.PatientAppointments, error)
}

type Documents interface {
	Upload(ctx context.Context, source session.Source, owner *session.Identity, req model.UploadDocumentRequest, file *document.File) (*model.MedicalDocument, error)
	List(ctx context.Context, source session.Source, owner *session.Identity) ([]*model.MedicalDocument, error)
}

// Handler serves the signed-in patient's own records.
type Handler struct {
	appointments Appointments
	documents    Documents
}

func NewHandler(appointments Appointments, documents Documents) *Handler {
	return &Handler{appointments: appointments, documents: documents}
}

// RegisterRoutes mounts the portal behind RequireIdentity.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	portal := r.Group("/portal", middleware.RequireIdentity())
	{
		portal.GET("/me", h.Me)
		portal.GET("/appointments", h.ListAppointments)
		portal.GET("/documents", h.ListDocuments)
		portal.POST("/documents", h.UploadDocument)
	}
}

func caller(c *gin.Context) (session.State, *session.Identity, bool) {
	state, _ := middleware.SessionState(c)
	identity := state.Identity()
	if identity == nil {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return state, nil, false
	}
	return state, identity, true
}

func (h *Handler) Me(c *gin.Context) {
	state, _, ok := caller(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, state.View())
}

// ListAppointments returns the caller's visits. A demo session has none;
// it never reads clinic records.
func (h *Handler) ListAppointments(c *gin.Context) {
	state, identity, ok := caller(c)
	if !ok {
		return
	}
	if !state.Verified() {
		httputil.RespondWithSuccess(c, &model.PatientAppointments{
			Upcoming: []*model.Appointment{},
			Past:     []*model.Appointment{},
		})
		return
	}

	appointments, err := h.appointments.ListForPatient(c.Request.Context(), identity.Email)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	state, identity, ok := caller(c)
	if !ok {
		return
	}

	docs, err := h.documents.List(c.Request.Context(), state.Source, identity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, docs)
}

func (h *Handler) UploadDocument(c *gin.Context) {
	state, identity, ok := caller(c)
	if !ok {
		return
	}

	var req model.UploadDocumentRequest
	if !handler.Bind(c, &req) {
		return
	}

	var file *document.File
	header, err := c.FormFile("file")
	if err == nil {
		f, err := header.Open()
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("failed to read uploaded file", err))
			return
		}
		defer f.Close()

		file = &document.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        f,
		}
	} else if err != http.ErrMissingFile {
		httputil.RespondWithError(c, errors.BadRequest("invalid upload", err))
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), state.Source, identity, req, file)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, doc)
}
