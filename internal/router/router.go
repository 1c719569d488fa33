package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/makhanda-smiles/portal-api/internal/handler/appointment"
	authhandler "github.com/makhanda-smiles/portal-api/internal/handler/auth"
	"github.com/makhanda-smiles/portal-api/internal/handler/booking"
	"github.com/makhanda-smiles/portal-api/internal/handler/catalog"
	"github.com/makhanda-smiles/portal-api/internal/handler/dashboard"
	emailhandler "github.com/makhanda-smiles/portal-api/internal/handler/email"
	"github.com/makhanda-smiles/portal-api/internal/handler/health"
	"github.com/makhanda-smiles/portal-api/internal/handler/lead"
	"github.com/makhanda-smiles/portal-api/internal/handler/portal"
	"github.com/makhanda-smiles/portal-api/internal/handler/prometheus"
	"github.com/makhanda-smiles/portal-api/internal/middleware"
	domainvalidator "github.com/makhanda-smiles/portal-api/pkg/validator"
)

// Handlers are the route groups the API serves.
type Handlers struct {
	Health       *health.Handler
	Catalog      *catalog.Handler
	Booking      *booking.Handler
	Auth         *authhandler.Handler
	Portal       *portal.Handler
	Leads        *lead.Handler
	Appointments *appointment.Handler
	Dashboard    *dashboard.Handler
	Email        *emailhandler.Handler
	Metrics      *prometheus.Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	SizeLimit        middleware.SizeLimitConfig
	RequestTimeout   time.Duration
	MetricsPath      string
	Mode             string
}

type Router struct {
	engine   *gin.Engine
	handlers Handlers
	sessions middleware.SessionResolver
	tokens   middleware.TokenValidator
	config   RouterConfig
}

func NewRouter(handlers Handlers, sessions middleware.SessionResolver, tokens middleware.TokenValidator, logger zerolog.Logger, config RouterConfig) (*Router, error) {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := domainvalidator.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	engine := gin.New()
	r := &Router{
		engine:   engine,
		handlers: handlers,
		sessions: sessions,
		tokens:   tokens,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(logger),
		middleware.Recovery(logger),
		middleware.Logger(logger),
	)
	if handlers.Metrics != nil {
		engine.Use(handlers.Metrics.Middleware())
	}
	engine.Use(
		middleware.ErrorHandler(logger),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.SizeLimit),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r, nil
}

func (r *Router) Setup() {
	if r.handlers.Metrics != nil && r.config.MetricsPath != "" {
		r.engine.GET(r.config.MetricsPath, r.handlers.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	r.handlers.Health.RegisterRoutes(api)

	identified := api.Group("", middleware.ClientIdentity(r.sessions, r.tokens))

	timed := identified.Group("", middleware.Timeout(r.config.RequestTimeout))
	r.setupPublicRoutes(timed)
	r.handlers.Auth.RegisterRoutes(timed)
	r.handlers.Portal.RegisterRoutes(timed)

	admin := timed.Group("/admin", middleware.RequireAdmin())
	r.setupAdminRoutes(admin)

	// The event stream is long-lived and stays outside the request timeout.
	stream := identified.Group("/admin", middleware.RequireAdmin())
	r.handlers.Appointments.RegisterStream(stream)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.handlers.Catalog.RegisterRoutes(rg)
	r.handlers.Booking.RegisterRoutes(rg)
	r.handlers.Leads.RegisterRoutes(rg)
}

func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	r.handlers.Appointments.RegisterRoutes(rg)
	r.handlers.Leads.RegisterAdminRoutes(rg)
	r.handlers.Dashboard.RegisterRoutes(rg)
	r.handlers.Email.RegisterRoutes(rg)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
