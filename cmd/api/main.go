package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/makhanda-smiles/portal-api/internal/config"
	"github.com/makhanda-smiles/portal-api/internal/email"
	"github.com/makhanda-smiles/portal-api/internal/handler/appointment"
	"github.com/makhanda-smiles/portal-api/internal/handler/auth"
	"github.com/makhanda-smiles/portal-api/internal/handler/booking"
	"github.com/makhanda-smiles/portal-api/internal/handler/catalog"
	"github.com/makhanda-smiles/portal-api/internal/handler/dashboard"
	emailhandler "github.com/makhanda-smiles/portal-api/internal/handler/email"
	"github.com/makhanda-smiles/portal-api/internal/handler/health"
	"github.com/makhanda-smiles/portal-api/internal/handler/lead"
	"github.com/makhanda-smiles/portal-api/internal/handler/portal"
	promhandler "github.com/makhanda-smiles/portal-api/internal/handler/prometheus"
	"github.com/makhanda-smiles/portal-api/internal/middleware"
	"github.com/makhanda-smiles/portal-api/internal/repository/postgres"
	"github.com/makhanda-smiles/portal-api/internal/router"
	appointmentService "github.com/makhanda-smiles/portal-api/internal/service/appointment"
	authService "github.com/makhanda-smiles/portal-api/internal/service/auth"
	bookingService "github.com/makhanda-smiles/portal-api/internal/service/booking"
	dashboardService "github.com/makhanda-smiles/portal-api/internal/service/dashboard"
	documentService "github.com/makhanda-smiles/portal-api/internal/service/document"
	leadService "github.com/makhanda-smiles/portal-api/internal/service/lead"
	"github.com/makhanda-smiles/portal-api/internal/session"
	"github.com/makhanda-smiles/portal-api/internal/storage"
	jwtauth "github.com/makhanda-smiles/portal-api/pkg/auth"
	"github.com/makhanda-smiles/portal-api/pkg/logger"
	"github.com/makhanda-smiles/portal-api/pkg/messaging/redis"
	"github.com/makhanda-smiles/portal-api/pkg/metrics"
	"github.com/makhanda-smiles/portal-api/pkg/security"
)

// The auth service is the session manager's provider.
var _ session.Provider = (*authService.Service)(nil)

const metricsNamespace = "smiles"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Error().Err(err).Msg("api exited")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	loc, err := cfg.Clinic.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// Initialize database
	db, err := postgres.NewDB(startCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// The broker owns the redis client and closes it.
	redisClient, err := redis.NewClient(startCtx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry, metricsNamespace, "api")

	broker := redis.NewRedisBroker(redisClient, logger.Component(appLogger, "broker"), m)
	defer func() {
		if err := broker.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("failed to close broker")
		}
	}()

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	userRepo := postgres.NewUserRepository(base)
	leadRepo := postgres.NewLeadRepository(base)
	documentRepo := postgres.NewDocumentRepository(base)

	sender, err := newSender(cfg.Email, appLogger)
	if err != nil {
		return err
	}
	notifier := email.NewNotifier(sender, m, logger.Component(appLogger, "email"), email.NotifierConfig{
		BatchPause: cfg.Email.BatchPause,
	})

	store, err := newStore(startCtx, cfg.Storage)
	if err != nil {
		return err
	}

	// Initialize services
	tokens := jwtauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	accounts := authService.NewService(
		userRepo,
		tokens,
		security.NewBcryptHasher(bcrypt.DefaultCost),
		authService.NewRedisTokenStore(redisClient),
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		logger.Component(appLogger, "auth"),
	)
	sessions := session.NewManager(accounts, userRepo, session.NewRedisFlagStore(redisClient),
		logger.Component(appLogger, "session"), session.Config{
			StateTTL:    cfg.Auth.SessionCacheTTL,
			DemoEnabled: cfg.Auth.DemoEnabled,
		})
	sessions.Start()
	defer sessions.Close()
	if cfg.Auth.DemoEnabled {
		appLogger.Warn().Msg("demo mode is enabled")
	}

	appointments := appointmentService.NewService(appointmentRepo, broker, notifier, m,
		logger.Component(appLogger, "appointments"), appointmentService.Config{Location: loc})
	bookings := bookingService.NewService(appointmentRepo, broker, m,
		logger.Component(appLogger, "booking"), bookingService.Config{
			Location:       loc,
			MaxOpenWizards: cfg.Booking.MaxOpenWizards,
		})
	documents := documentService.NewService(documentRepo, store, m, logger.Component(appLogger, "documents"))
	leads := leadService.NewService(leadRepo, notifier, logger.Component(appLogger, "leads"))
	stats := dashboardService.NewService(appointmentRepo, patientRepo, loc, nil)

	// Initialize handlers
	handlers := router.Handlers{
		Health: health.NewHandler(map[string]health.Check{
			"database": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
		Catalog:      catalog.NewHandler(),
		Booking:      booking.NewHandler(bookings),
		Auth:         auth.NewHandler(sessions, accounts),
		Portal:       portal.NewHandler(appointments, documents),
		Leads:        lead.NewHandler(leads),
		Appointments: appointment.NewHandler(appointments, broker, 15*time.Second),
		Dashboard:    dashboard.NewHandler(stats),
		Email:        emailhandler.NewHandler(notifier),
	}
	if cfg.Metrics.Enabled {
		handlers.Metrics = promhandler.New(registry, metricsNamespace)
	}

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if cfg.Server.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = cfg.Server.MaxBodyBytes
	}

	r, err := router.NewRouter(handlers, sessions, tokens, logger.Component(appLogger, "http"), router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig(cfg.CORS),
		SizeLimit:        sizeLimit,
		RequestTimeout:   cfg.Server.RequestTimeout,
		MetricsPath:      cfg.Metrics.Path,
	})
	if err != nil {
		return err
	}
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("email", cfg.Email.Provider).Str("storage", store.Name()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server exited properly")
	return nil
}

func newSender(cfg config.EmailConfig, l zerolog.Logger) (email.Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		return email.NewSendGridSender(email.SendGridConfig{
			APIKey:     cfg.SendGrid.APIKey,
			TemplateID: cfg.SendGrid.TemplateID,
			FromEmail:  cfg.FromEmail,
			FromName:   cfg.FromName,
		}, logger.Component(l, "sendgrid")), nil
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}), nil
	case "stub":
		return email.NewStubSender(logger.Component(l, "email-stub")), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Provider != "s3" {
		return storage.DemoStore{}, nil
	}
	client, err := storage.NewS3Client(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return storage.NewS3Store(client, cfg.Bucket), nil
}

func corsConfig(cfg config.CORSConfig) middleware.CORSConfig {
	out := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		out.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		out.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		out.AllowHeaders = cfg.AllowedHeaders
	}
	if cfg.MaxAge > 0 {
		out.MaxAge = cfg.MaxAge
	}
	return out
}
