package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	app "github.com/reimburse/backend/internal/application/reimbursement"
	"github.com/reimburse/backend/internal/infrastructure/auth"
	"github.com/reimburse/backend/internal/infrastructure/cache"
	"github.com/reimburse/backend/internal/infrastructure/config"
	"github.com/reimburse/backend/internal/infrastructure/event"
	"github.com/reimburse/backend/internal/infrastructure/logger"
	"github.com/reimburse/backend/internal/infrastructure/persistence"
	"github.com/reimburse/backend/internal/infrastructure/printing"
	"github.com/reimburse/backend/internal/infrastructure/storage"
	"github.com/reimburse/backend/internal/infrastructure/telemetry"
	"github.com/reimburse/backend/internal/interfaces/http/handler"
	"github.com/reimburse/backend/internal/interfaces/http/middleware"
	"github.com/reimburse/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Reimbursement API
//	@version		1.0
//	@description	Payment request, approval and settlement backend for committee reimbursements.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry first so that the bridged logger and the GORM plugin see live providers
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log := baseLog
	if logProvider.IsEnabled() {
		log = telemetry.Bridge(baseLog, telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, logProvider, logger.ParseLevel(cfg.Log.Level)))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting reimbursement backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Profiling, cfg.App.Name, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	requestRepo := persistence.NewGormPaymentRequestRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	reimbursementMetrics, err := telemetry.NewReimbursementMetrics(meterProvider.Meter("reimbursement"))
	if err != nil {
		log.Fatal("Failed to create reimbursement metrics", zap.Error(err))
	}
	eventBus.Subscribe(reimbursementMetrics)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	objects := newObjectStorage(ctx, cfg, log)

	var (
		renderer   app.PDFRenderer
		rasterizer app.PageRasterizer
		chrome     *printing.ChromedpRenderer
	)
	if cfg.Printing.Enabled {
		chrome = printing.NewChromedpRenderer(printing.ChromedpConfig{
			RemoteURL: cfg.Printing.RemoteURL,
			Timeout:   cfg.Printing.Timeout,
			NoSandbox: true,
			PDFJSURL:  cfg.Printing.PDFJSURL,
			Logger:    log,
		})
		renderer, rasterizer = chrome, chrome
	} else {
		log.Warn("Printing disabled, PDF export will report RENDER_UNAVAILABLE")
	}
	reportTemplate, err := printing.NewSettlementTemplate()
	if err != nil {
		log.Fatal("Failed to parse report template", zap.Error(err))
	}

	userService := app.NewUserService(userRepo, log)
	fileService := app.NewFileService(objects, userRepo, requestRepo, log)
	requestService := app.NewRequestService(requestRepo, userRepo, projectRepo, settingsRepo, eventBus, log)
	settlementService := app.NewSettlementService(requestRepo, settlementRepo, eventBus, log)
	reportService := app.NewReportService(settlementRepo, projectRepo, fileService, reportTemplate,
		renderer, rasterizer, printing.NewImageNormalizer(cfg.Printing.MaxImageSize), log)
	reportService.SetPreloadParallel(cfg.Printing.PreloadParallel)
	projectService := app.NewProjectService(projectRepo, userRepo, log)
	budgetService := app.NewBudgetService(projectRepo, requestRepo)
	settingsService := app.NewSettingsService(settingsRepo, projectRepo)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	if cfg.HTTP.RateLimitEnabled {
		go rateLimiter.RunSweeper(sweepCtx)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	engine := router.New(router.Deps{
		Config:      cfg,
		Logger:      log,
		Verifier:    auth.NewJWTService(cfg.JWT),
		Profiles:    userService,
		Idempotency: idempotencyStore,
		RateLimiter: rateLimiter,
		Handlers: router.Handlers{
			Health:     handler.NewHealthHandler(db, version),
			User:       handler.NewUserHandler(userService),
			File:       handler.NewFileHandler(fileService),
			Request:    handler.NewRequestHandler(requestService),
			Settlement: handler.NewSettlementHandler(settlementService, reportService),
			Project:    handler.NewProjectHandler(projectService, budgetService),
			Settings:   handler.NewSettingsHandler(settingsService),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// reverse order of construction
	stopSweeper()
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if chrome != nil {
		if err := chrome.Close(); err != nil {
			log.Error("Error closing browser", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down log provider", zap.Error(err))
	}
}

// newObjectStorage uses S3 compatible storage when a bucket is configured and
// keeps objects in memory otherwise, which is only useful for local runs
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) app.ObjectStorage {
	if cfg.Storage.Bucket == "" {
		log.Warn("No storage bucket configured, receipts are kept in memory")
		return storage.NewMemoryObjectStorage("local", cfg.Storage.PublicBaseURL)
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if cfg.App.Env != "production" {
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Warn("Could not ensure storage bucket", zap.Error(err))
		}
	}
	log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	return s3
}
