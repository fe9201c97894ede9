// Package api wires together all HTTP routes for the MenuHub backend.
//
// Route groups:
//   - /api/v1/public/:slug and the SEO files are unauthenticated and only ever
//     expose published organizations.
//   - /api/v1/auth handles dashboard login and is rate limited more strictly.
//   - /api/v1/organizations requires a bearer token; routes under /:id also
//     require a role in that organization granting the route's scope.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/menuhub/menuhub/internal/api/admin"
	"github.com/menuhub/menuhub/internal/api/public"
	"github.com/menuhub/menuhub/internal/audit"
	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/auth/oidc"
	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/crypto"
	"github.com/menuhub/menuhub/internal/db"
	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/jobs"
	"github.com/menuhub/menuhub/internal/middleware"
	"github.com/menuhub/menuhub/internal/qrcode"
	"github.com/menuhub/menuhub/internal/sentry"
	"github.com/menuhub/menuhub/internal/seo"
	"github.com/menuhub/menuhub/internal/services"
	"github.com/menuhub/menuhub/internal/storage"

	// Import storage backends to register them
	_ "github.com/menuhub/menuhub/internal/storage/azure"
	_ "github.com/menuhub/menuhub/internal/storage/gcs"
	_ "github.com/menuhub/menuhub/internal/storage/local"
	_ "github.com/menuhub/menuhub/internal/storage/s3"
)

// Version is the build version reported by /version. Release builds set it
// with -ldflags "-X github.com/menuhub/menuhub/internal/api.Version=...".
var Version = "dev"

const (
	apiVersion         = "v1"
	healthCheckTimeout = 2 * time.Second
	oidcDiscoveryLimit = 10 * time.Second
)

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Start once and Shutdown when the process receives a termination signal.
type BackgroundServices struct {
	sitemapWarmer *jobs.SitemapWarmer
	stopFuncs     []func()
	redis         *redis.Client
	shipper       *audit.MultiShipper
}

// Start launches the scheduled jobs.
func (bg *BackgroundServices) Start(ctx context.Context) {
	if bg.sitemapWarmer != nil {
		bg.sitemapWarmer.Start(ctx)
	}
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.sitemapWarmer != nil {
		bg.sitemapWarmer.Stop()
	}
	for _, stop := range bg.stopFuncs {
		stop()
	}
	if bg.shipper != nil {
		if err := bg.shipper.Close(); err != nil {
			slog.Warn("failed to close audit shippers", "error", err)
		}
	}
	if bg.redis != nil {
		if err := bg.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router. reporter may be nil.
func NewRouter(cfg *config.Config, database *sql.DB, reporter *sentry.Client) (*gin.Engine, *BackgroundServices, error) {
	bg := &BackgroundServices{}

	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	slog.Info("storage backend initialized", "backend", cfg.Storage.DefaultBackend)

	appCache, redisClient, err := cache.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	bg.redis = redisClient

	cipher, err := crypto.NewSecretCipher(cfg.Encryption.Key, cfg.App.IsProductionLike())
	if err != nil {
		return nil, nil, err
	}
	if !cipher.Enabled() {
		slog.Warn("encryption.key is not set; integration secrets are stored in plaintext")
	}

	// Initialize repositories
	sqlxDB := db.Wrap(database)
	userRepo := repositories.NewUserRepository(database)
	orgRepo := repositories.NewOrganizationRepository(database)
	menuRepo := repositories.NewMenuRepository(sqlxDB)
	feedbackRepo := repositories.NewFeedbackRepository(sqlxDB)
	auditRepo := repositories.NewAuditRepository(sqlxDB)
	secretsService := services.NewSecretsService(repositories.NewSecretRepository(sqlxDB), cipher)

	appURL := cfg.GetAppURL()
	sitemap := seo.NewBuilder(orgRepo, appCache, appURL, cfg.Cache.SitemapTTL)
	qr := qrcode.NewGenerator(storageBackend, appURL, cfg.QR.DefaultSize, cfg.QR.MaxSize)

	bg.sitemapWarmer, err = jobs.NewSitemapWarmer(sitemap, cfg.Jobs.SitemapWarmSchedule)
	if err != nil {
		return nil, nil, err
	}

	var provider *oidc.OIDCProvider
	if cfg.Auth.OIDC.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), oidcDiscoveryLimit)
		provider, err = oidc.NewOIDCProvider(ctx, &cfg.Auth.OIDC)
		cancel()
		if err != nil {
			// Password login keeps working; the OIDC endpoints report the provider as unconfigured.
			slog.Error("failed to initialize OIDC provider", "error", err, "issuer", cfg.Auth.OIDC.IssuerURL)
			provider = nil
		} else {
			slog.Info("OIDC provider initialized", "issuer", cfg.Auth.OIDC.IssuerURL)
		}
	}

	var shipper audit.Shipper
	if cfg.Audit.Enabled {
		ms, err := audit.NewFromConfig(&cfg.Audit)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize audit shippers: %w", err)
		}
		if ms.Len() > 0 {
			shipper = ms
			bg.shipper = ms
		}
	}

	// Rate limiters share Redis with the cache when it is enabled.
	rl := cfg.Security.RateLimiting
	limit := func(rlCfg middleware.RateLimitConfig, scope string) gin.HandlerFunc {
		if !rl.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		limiter, stop := middleware.NewLimiter(redisClient, rlCfg, "ratelimit:")
		bg.stopFuncs = append(bg.stopFuncs, stop)
		return middleware.RateLimitMiddleware(limiter, scope)
	}
	apiLimit := limit(middleware.APIRateLimitConfig(&rl), "api")
	authLimit := limit(middleware.AuthRateLimitConfig(), "auth")
	feedbackLimit := limit(middleware.FeedbackRateLimitConfig(&rl), "feedback")

	router := gin.New()
	router.Use(middleware.SentryRecovery(reporter))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.Security.CORS))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health, readiness and version
	router.GET("/health", healthCheckHandler(database))
	router.GET("/api/health", healthCheckHandler(database))
	router.GET("/ready", readinessHandler(database, storageBackend, appCache))
	router.GET("/version", versionHandler())

	publicHandlers := public.NewHandlers(cfg, orgRepo, menuRepo, feedbackRepo, appCache, qr, sitemap)
	assetHeaders := middleware.SecurityHeadersMiddleware(middleware.PublicAssetSecurityHeadersConfig())
	router.GET("/sitemap.xml", assetHeaders, publicHandlers.SitemapHandler())
	router.GET("/robots.txt", assetHeaders, publicHandlers.RobotsHandler())

	// Stored QR codes are served from here when the local backend has no CDN in front.
	if cfg.Storage.DefaultBackend == "local" && cfg.Storage.Local.ServeDirectly {
		router.GET("/files/*filepath", assetHeaders, public.ServeFileHandler(storageBackend))
	}

	apiV1 := router.Group("/api/v1")
	{
		publicGroup := apiV1.Group("/public/:slug")
		publicGroup.Use(apiLimit)
		{
			publicGroup.GET("", publicHandlers.GetOrganizationHandler())
			publicGroup.GET("/menu", publicHandlers.GetMenuHandler())
			publicGroup.POST("/feedback", feedbackLimit, publicHandlers.SubmitFeedbackHandler())
			publicGroup.POST("/whatsapp/order", publicHandlers.WhatsAppOrderHandler())
			publicGroup.GET("/qr.png", assetHeaders, publicHandlers.QRCodeHandler())
		}

		authHandlers := admin.NewAuthHandlers(cfg, userRepo, orgRepo, appCache, provider)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(authLimit)
		{
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.GET("/oidc/login", authHandlers.OIDCLoginHandler())
			authGroup.GET("/oidc/callback", authHandlers.OIDCCallbackHandler())
		}

		authenticated := apiV1.Group("")
		authenticated.Use(middleware.AuthMiddleware(userRepo))
		authenticated.Use(apiLimit)
		if cfg.Audit.Enabled {
			authenticated.Use(middleware.AuditMiddleware(auditRepo, shipper, &cfg.Audit))
		}
		{
			authenticated.POST("/auth/refresh", authHandlers.RefreshHandler())
			authenticated.GET("/auth/me", authHandlers.MeHandler())

			orgHandlers := admin.NewOrganizationHandlers(orgRepo, appCache, sitemap)
			menuHandlers := admin.NewMenuHandlers(orgRepo, menuRepo, appCache, sitemap)
			feedbackHandlers := admin.NewFeedbackHandlers(feedbackRepo)
			secretHandlers := admin.NewSecretHandlers(secretsService)
			qrHandlers := admin.NewQRHandlers(orgRepo, qr)
			auditHandlers := admin.NewAuditHandlers(auditRepo)

			scope := func(s auth.Scope) gin.HandlerFunc {
				return middleware.RequireOrgScope(s, orgRepo)
			}

			authenticated.POST("/organizations", orgHandlers.CreateOrganizationHandler())
			authenticated.GET("/organizations", orgHandlers.ListOrganizationsHandler())

			org := authenticated.Group("/organizations/:id")
			{
				org.GET("", scope(auth.ScopeOrganizationsRead), orgHandlers.GetOrganizationHandler())
				org.PATCH("/publish", scope(auth.ScopeOrganizationsWrite), orgHandlers.PublishHandler())
				org.PUT("/menus", scope(auth.ScopeMenusWrite), menuHandlers.ImportMenusHandler())
				org.GET("/feedback", scope(auth.ScopeFeedbackRead), feedbackHandlers.ListFeedbackHandler())
				org.POST("/qr", scope(auth.ScopeQRGenerate), qrHandlers.GenerateQRHandler())
				org.GET("/audit-logs", scope(auth.ScopeAuditRead), auditHandlers.ListAuditLogsHandler())

				org.GET("/secrets", scope(auth.ScopeSecretsManage), secretHandlers.ListSecretsHandler())
				org.PUT("/secrets/:provider", scope(auth.ScopeSecretsManage), secretHandlers.PutSecretHandler())
				org.DELETE("/secrets/:provider", scope(auth.ScopeSecretsManage), secretHandlers.DeleteSecretHandler())
			}
		}
	}

	return router, bg, nil
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: ok, timestamp, message"
// @Failure      503  {object}  map[string]interface{}  "status: error, timestamp, message"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		now := time.Now().UTC().Format(time.RFC3339)
		if err := database.PingContext(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "error",
				"timestamp": now,
				"message":   "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": now,
			"message":   "Service is healthy",
		})
	}
}

// pinger is satisfied by the storage backend and the cache.
type pinger interface {
	Ping(ctx context.Context) error
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks the database, the storage backend and the cache.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks"
// @Failure      503  {object}  map[string]interface{}  "ready: false, checks, error"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks storage and cache so
// that a readiness gate fails when QR uploads or cached reads would error.
func readinessHandler(database *sql.DB, storageBackend, appCache pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		checks := gin.H{}
		probes := []struct {
			name string
			ping func(context.Context) error
		}{
			{"database", database.PingContext},
			{"storage", storageBackend.Ping},
			{"cache", appCache.Ping},
		}
		for _, p := range probes {
			if err := p.ping(ctx); err != nil {
				checks[p.name] = "unhealthy"
				slog.Warn("readiness probe failed", "check", p.name, "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"ready":  false,
					"checks": checks,
					"error":  p.name + " not ready",
				})
				return
			}
			checks[p.name] = "healthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the build version and the API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": apiVersion,
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logRequest(c, time.Since(start), path, query)
	}
}

// logRequest emits one slog record per request. The global handler decides
// between JSON and text output (telemetry.SetupLogger).
func logRequest(c *gin.Context, latency time.Duration, path, query string) {
	status := c.Writer.Status()
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", middleware.RequestID(c)),
		slog.String("user_agent", c.Request.UserAgent()),
	}
	if query != "" {
		attrs = append(attrs, slog.String("query", query))
	}
	if userID := c.GetString(middleware.UserIDKey); userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	slog.LogAttrs(c.Request.Context(), level, "http request", attrs...)
}
