package router

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/reimburse/backend/docs"
	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/reimburse/backend/internal/infrastructure/config"
	"github.com/reimburse/backend/internal/infrastructure/logger"
	"github.com/reimburse/backend/internal/interfaces/http/handler"
	"github.com/reimburse/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Health     *handler.HealthHandler
	User       *handler.UserHandler
	File       *handler.FileHandler
	Request    *handler.RequestHandler
	Settlement *handler.SettlementHandler
	Project    *handler.ProjectHandler
	Settings   *handler.SettingsHandler
}

// Deps is everything New needs to build the engine
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Verifier    middleware.TokenVerifier
	Profiles    middleware.ProfileEnsurer
	Idempotency shared.IdempotencyStore
	RateLimiter *middleware.RateLimiter
	Handlers    Handlers
}

// New builds the gin engine with the global middleware chain, the public
// and authenticated route groups, and the documentation endpoint
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			deps.Logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(deps.Logger),
		logger.Recovery(deps.Logger),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.CORS(corsConfig(cfg.HTTP)),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	authChain := []gin.HandlerFunc{
		middleware.JWTAuth(deps.Verifier, deps.Logger),
		middleware.TracingAttributes(),
		middleware.LoadActor(deps.Profiles),
	}
	if cfg.HTTP.RateLimitEnabled && deps.RateLimiter != nil {
		authChain = append(authChain, middleware.RateLimit(deps.RateLimiter))
	}

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, middleware.JWTAuth(deps.Verifier, deps.Logger)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(publicRoutes(deps.Handlers))
	r.Register(authenticatedRoutes(deps, authChain))
	r.Setup()

	return engine
}

func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(h.CORSAllowOrigins) > 0 {
		c.AllowOrigins = h.CORSAllowOrigins
	}
	if len(h.CORSAllowMethods) > 0 {
		c.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		c.AllowHeaders = h.CORSAllowHeaders
	}
	return c
}

func publicRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("public", "").
		GET("/health", h.Health.Health)
}

func authenticatedRoutes(deps Deps, chain []gin.HandlerFunc) *DomainGroup {
	h := deps.Handlers
	ttl := deps.Config.HTTP.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	idem := middleware.Idempotency(deps.Idempotency, ttl)
	approver := middleware.RequireApprover()
	admin := middleware.RequireAdmin()

	api := NewDomainGroup("api", "").Use(chain...)

	api.Group("me", "/me").
		GET("", h.User.Me).
		PUT("", h.User.UpdateMe)

	api.Group("files", "/files").
		POST("/receipts", idem, h.File.UploadReceipts).
		POST("/bankbook", idem, h.File.UploadBankBook).
		POST("/download", h.File.Download).
		POST("/receipts/archive", approver, h.File.ReceiptArchive)

	api.Group("requests", "/requests").
		POST("", idem, h.Request.Create).
		GET("", h.Request.List).
		GET("/:id", h.Request.Get).
		POST("/:id/resubmit", idem, h.Request.Resubmit).
		POST("/:id/cancel", h.Request.Cancel).
		POST("/:id/approve", approver, h.Request.Approve).
		POST("/:id/reject", approver, h.Request.Reject)

	api.Group("settlements", "/settlements").
		Use(approver).
		POST("", idem, h.Settlement.Settle).
		GET("", h.Settlement.List).
		GET("/:id", h.Settlement.Get).
		PUT("/:id/signatures", h.Settlement.AttachSignatures).
		GET("/:id/report.pdf", h.Settlement.ReportPDF).
		GET("/:id/report.html", h.Settlement.ReportHTML)

	api.Group("projects", "/projects").
		GET("", h.Project.List).
		GET("/:id", h.Project.Get).
		GET("/:id/budget", approver, h.Project.Budget).
		POST("", admin, h.Project.Create).
		PUT("/:id", admin, h.Project.Update).
		PUT("/:id/members", admin, h.Project.SetMembers)

	api.Group("users", "/users").
		Use(admin).
		GET("", h.User.List).
		PUT("/:uid/role", h.User.ChangeRole)

	api.Group("settings", "/settings").
		GET("/global", h.Settings.GetGlobal).
		PUT("/global", admin, h.Settings.SetGlobal).
		GET("/budget-config", admin, h.Settings.GetBudgetConfig).
		PUT("/budget-config", admin, h.Settings.SetBudgetConfig)

	return api
}
