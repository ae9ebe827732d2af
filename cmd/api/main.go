package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/dafibh/elektrikci/elektrikci-backend/docs"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/config"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/handler"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/metrics"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/migration"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/repository/postgres"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/repository/storage"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title Elektrikci API
// @version 1.0
// @description Job, payment, customer and note ledger for an electrician.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if cfg.RunMigrations {
		db := stdlib.OpenDBFromPool(pool)
		if err := migration.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		db.Close()
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)

	var backupStorage storage.BackupRepository
	if cfg.S3.Enabled() {
		s3Repo, err := storage.NewS3BackupRepository(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 backup storage")
		}
		backupStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Backups stored in S3")
	} else {
		backupStorage = storage.NewMemoryBackupRepository()
		log.Warn().Msg("S3_BUCKET not set, backups are kept in memory")
	}

	// Metrics and websocket hub
	collector := metrics.New(prometheus.DefaultRegisterer)
	hub := websocket.NewHub()
	hub.SetObserver(collector)

	clock := func() time.Time { return time.Now().In(cfg.Location) }

	// Initialize services
	authService := service.NewAuthService(userRepo, workspaceRepo)
	snapshotService := service.NewSnapshotService(jobRepo, customerRepo, noteRepo)
	snapshotService.SetClock(clock)
	notifier := service.NewChangeNotifier(snapshotService, hub)

	jobService := service.NewJobService(jobRepo)
	jobService.SetClock(clock)
	jobService.SetEventPublisher(notifier)
	jobService.SetMetrics(collector)

	customerService := service.NewCustomerService(customerRepo, jobRepo, noteRepo)
	customerService.SetClock(clock)
	customerService.SetEventPublisher(notifier)

	noteService := service.NewNoteService(noteRepo, customerRepo, jobRepo)
	noteService.SetClock(clock)
	noteService.SetEventPublisher(notifier)

	statementService := service.NewStatementService(customerRepo, jobRepo)
	statementService.SetClock(clock)

	backupService := service.NewBackupService(jobRepo, customerRepo, noteRepo, backupStorage, service.BackupConfig{
		Prefix: cfg.S3.Prefix,
		Retain: cfg.S3.Retain,
	})
	backupService.SetClock(clock)
	backupService.SetEventPublisher(notifier)
	backupService.SetMetrics(collector)

	// Create workspace provider adapter for auth middleware and websocket validator
	workspaceProvider := &workspaceProviderAdapter{authService: authService}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, workspaceProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Job:       handler.NewJobHandler(jobService, noteService),
		Customer:  handler.NewCustomerHandler(customerService, statementService),
		Note:      handler.NewNoteHandler(noteService),
		Backup:    handler.NewBackupHandler(backupService),
		Snapshot:  handler.NewSnapshotHandler(snapshotService),
		WebSocket: handler.NewWebSocketHandler(hub, wsValidator, snapshotService, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like). The swagger UI needs inline
	// scripts, so CSP is skipped for it.
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	e.Use(collector.Middleware())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    "ok",
			"wsClients": hub.TotalClientCount(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API documentation
	if !cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}
	e.GET("/openapi.json", handler.ServeOpenAPI3Spec)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("timezone", cfg.Location.String()).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// workspaceProviderAdapter adapts AuthService to middleware.WorkspaceProvider
// and websocket.WorkspaceLookup
type workspaceProviderAdapter struct {
	authService *service.AuthService
}

// GetWorkspaceByAuth0ID implements middleware.WorkspaceProvider
func (a *workspaceProviderAdapter) GetWorkspaceByAuth0ID(auth0ID string) (int32, error) {
	workspace, err := a.authService.GetWorkspaceByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("workspace_id", middleware.GetWorkspaceID(c)).
				Msg("request")

			return nil
		}
	}
}
