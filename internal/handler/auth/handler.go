package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/makhanda-smiles/portal-api/internal/handler"
	"github.com/makhanda-smiles/portal-api/internal/middleware"
	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/session"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

// Sessions is the per-client session state.
type Sessions interface {
	Init(ctx context.Context, clientID string) (session.State, error)
	SignIn(ctx context.Context, clientID, email, password string) (session.State, error)
	SignUp(ctx context.Context, clientID string, register func(ctx context.Context) (*model.AuthSession, error)) (session.State, error)
	SignOut(ctx context.Context, clientID string) error
	EnterDemoMode(ctx context.Context, clientID string, role session.Role) (session.State, error)
	ExitDemoMode(ctx context.Context, clientID string) (session.State, error)
}

type Registrar interface {
	Register(ctx context.Context, clientID string, req model.RegisterRequest) (*model.AuthSession, error)
}

type Handler struct {
	sessions Sessions
	accounts Registrar
}

func NewHandler(sessions Sessions, accounts Registrar) *Handler {
	return &Handler{sessions: sessions, accounts: accounts}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth", middleware.RequireClient())
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/demo", h.EnterDemo)
		auth.DELETE("/demo", h.ExitDemo)
		auth.GET("/session", h.Session)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	clientID := middleware.ClientID(c)
	state, err := h.sessions.SignUp(c.Request.Context(), clientID, func(ctx context.Context) (*model.AuthSession, error) {
		return h.accounts.Register(ctx, clientID, req)
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, state.View())
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	state, err := h.sessions.SignIn(c.Request.Context(), middleware.ClientID(c), req.Email, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, state.View())
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context(), middleware.ClientID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session.State{}.View())
}

func (h *Handler) EnterDemo(c *gin.Context) {
	var req model.DemoRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	state, err := h.sessions.EnterDemoMode(c.Request.Context(), middleware.ClientID(c), session.Role(req.Role))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, state.View())
}

func (h *Handler) ExitDemo(c *gin.Context) {
	state, err := h.sessions.ExitDemoMode(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, state.View())
}

// Session reports the state resolved for this request.
func (h *Handler) Session(c *gin.Context) {
	state, ok := middleware.SessionState(c)
	if !ok {
		var err error
		state, err = h.sessions.Init(c.Request.Context(), middleware.ClientID(c))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}
	httputil.RespondWithSuccess(c, state.View())
}
