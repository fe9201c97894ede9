// @title           MenuHub API
// @version         1.0.0
// @description     Multi-tenant digital menus for restaurants: public menus, WhatsApp ordering, feedback and QR codes.
// @contact.name    Support
// @contact.email   support@menuhub.ma
// @basePath        /
// @schemes         http https
// @securityDefinitions.apiKey  Bearer
// @in                          header
// @name                         Authorization
// @description                  "JWT access token: 'Bearer {token}'"
//
// @tag.name         System
// @tag.description  Health, readiness and version endpoints.
//
// @tag.name         Observability
// @tag.description  Prometheus metrics are served on a dedicated port (default: 9090) at GET /metrics, separate from the main API listener. Configure it with MENUHUB_TELEMETRY_METRICS_PROMETHEUS_PORT.

// Package main is the entry point for the MenuHub server binary.
// It dispatches four subcommands (serve, migrate, encrypt-secrets and version)
// with a plain switch on os.Args. The serve command runs migrations on startup
// so freshly deployed containers never need a separate migration step.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menuhub/menuhub/internal/api"
	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/crypto"
	"github.com/menuhub/menuhub/internal/db"
	"github.com/menuhub/menuhub/internal/db/repositories"
	"github.com/menuhub/menuhub/internal/sentry"
	"github.com/menuhub/menuhub/internal/services"
	"github.com/menuhub/menuhub/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	configPath := os.Getenv("CONFIG_PATH")

	switch command {
	case "serve":
		// The log level follows config file edits without a restart.
		cfg, err := config.Watch(configPath, func(next *config.Config) {
			telemetry.SetLogLevel(next.Logging.Level)
		})
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cfg)
	case "migrate":
		if len(os.Args) < 3 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return runMigrations(cfg, os.Args[2])
	case "encrypt-secrets":
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return encryptSecrets(cfg)
	case "version":
		fmt.Printf("MenuHub %s\n", api.Version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, migrate, encrypt-secrets, version", command)
	}
}

func newReporter(cfg *config.Config) *sentry.Client {
	env := cfg.Sentry.Environment
	if env == "" {
		env = cfg.App.Environment
	}
	release := cfg.Sentry.Release
	if release == "" {
		release = api.Version
	}
	return sentry.New(sentry.Config{
		DSN:             cfg.Sentry.DSN,
		Environment:     env,
		Release:         release,
		Timeout:         cfg.Sentry.Timeout,
		EventsPerSecond: cfg.Sentry.EventsPerSecond,
	})
}

func serve(cfg *config.Config) error {
	// Initialise structured logger as early as possible so all subsequent log output
	// uses the configured format (json / text) and level.
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if telemetry.LogLevel() <= slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Fails in production-like environments when MENUHUB_JWT_SECRET is unset.
	if err := auth.ValidateJWTSecret(); err != nil {
		return fmt.Errorf("security configuration error: %w", err)
	}
	log.Println("JWT secret validated successfully")

	reporter := newReporter(cfg)
	if reporter.Enabled() {
		slog.Info("error reporting enabled", "endpoint", reporter.Endpoint())
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	log.Printf("Connected to database %s on %s:%d", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.StartDBStatsCollector(ctx, database)

	log.Println("Running database migrations...")
	if err := db.RunMigrations(database, "up"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if version, dirty, err := db.GetMigrationVersion(database); err != nil {
		log.Printf("Warning: failed to get migration version: %v", err)
	} else {
		log.Printf("Database schema version: %d (dirty: %v)", version, dirty)
	}

	// Metrics live on their own port so the scrape path stays off the public ingress.
	var metricsServer *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("starting Prometheus metrics server", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	router, bgServices, err := api.NewRouter(cfg, database, reporter)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	bgServices.Start(ctx)

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.Server.GetAddress())
		log.Printf("Base URL: %s", cfg.Server.GetBaseURL())
		log.Printf("App URL: %s", cfg.GetAppURL())
		log.Printf("Storage backend: %s", cfg.Storage.DefaultBackend)

		var err error
		if cfg.Security.TLS.Enabled {
			log.Printf("TLS enabled: cert=%s, key=%s", cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		bgServices.Shutdown()
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown failed", "error", err)
		}
	}

	// Stop the sitemap warmer, rate limiter goroutines and audit shippers
	bgServices.Shutdown()

	log.Println("Server stopped gracefully")
	return nil
}

func runMigrations(cfg *config.Config, direction string) error {
	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	log.Printf("Running migrations: %s", direction)
	if err := db.RunMigrations(database, direction); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	log.Printf("Migration completed successfully. Current version: %d (dirty: %v)", version, dirty)
	return nil
}

// encryptSecrets rewrites integration secrets stored before encryption.key was
// configured. Already encrypted values are left alone, so it is safe to rerun.
func encryptSecrets(cfg *config.Config) error {
	if cfg.Encryption.Key == "" {
		return errors.New("encryption.key (ENCRYPTION_KEY) must be set to encrypt secrets")
	}
	cipher, err := crypto.NewSecretCipher(cfg.Encryption.Key, cfg.App.IsProductionLike())
	if err != nil {
		return err
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	svc := services.NewSecretsService(repositories.NewSecretRepository(db.Wrap(database)), cipher)
	n, err := svc.EncryptLegacy(context.Background())
	if err != nil {
		return fmt.Errorf("failed after encrypting %d secrets: %w", n, err)
	}
	log.Printf("Encrypted %d plaintext secrets", n)
	return nil
}
