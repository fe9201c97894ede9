// Package config loads and validates the MenuHub configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the MENUHUB_ prefix (e.g.,
// MENUHUB_DATABASE_HOST overrides database.host in the YAML).
//
// A handful of variables are also read without the prefix (ENCRYPTION_KEY,
// SENTRY_DSN, APP_ENV, NODE_ENV, APP_URL) because the web frontend and the
// hosting platform share them with this service.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Environments treated as production for fail-fast checks.
var productionLikeEnvironments = map[string]bool{
	"production": true,
	"staging":    true,
}

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Security   SecurityConfig   `mapstructure:"security"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	QR         QRConfig         `mapstructure:"qr"`
}

// AppConfig describes the deployment the service belongs to.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	// URL is the public origin of the customer-facing web app. Sitemap
	// entries, QR codes and robots.txt point here.
	URL string `mapstructure:"url"`
}

// IsProductionLike reports whether the environment requires production safeguards.
func (a *AppConfig) IsProductionLike() bool {
	return productionLikeEnvironments[strings.ToLower(strings.TrimSpace(a.Environment))]
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	BaseURL   string `mapstructure:"base_url"`
	PublicURL string `mapstructure:"public_url"`
	// DeploymentHost is a bare hostname injected by the hosting platform
	// (no scheme). Used only when no explicit URL is configured.
	DeploymentHost string        `mapstructure:"deployment_host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// GetBaseURL returns the origin this API is reachable at.
// Resolution order: public_url, base_url, https://deployment_host, then
// http://localhost:<port>. A trailing slash is never returned.
func (s *ServerConfig) GetBaseURL() string {
	switch {
	case strings.TrimSpace(s.PublicURL) != "":
		return strings.TrimRight(strings.TrimSpace(s.PublicURL), "/")
	case strings.TrimSpace(s.BaseURL) != "":
		return strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	case strings.TrimSpace(s.DeploymentHost) != "":
		host := strings.TrimSpace(s.DeploymentHost)
		host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
		return "https://" + strings.TrimRight(host, "/")
	default:
		return fmt.Sprintf("http://localhost:%d", s.Port)
	}
}

// GetAppURL returns the public web app origin, falling back to the API base URL.
func (c *Config) GetAppURL() string {
	if u := strings.TrimSpace(c.App.URL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return c.Server.GetBaseURL()
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// StorageConfig holds storage backend configuration for generated assets
type StorageConfig struct {
	DefaultBackend string             `mapstructure:"default_backend"`
	Azure          AzureStorageConfig `mapstructure:"azure"`
	S3             S3StorageConfig    `mapstructure:"s3"`
	GCS            GCSStorageConfig   `mapstructure:"gcs"`
	Local          LocalStorageConfig `mapstructure:"local"`
}

// AzureStorageConfig holds Azure Blob Storage configuration
type AzureStorageConfig struct {
	AccountName   string `mapstructure:"account_name"`
	AccountKey    string `mapstructure:"account_key"`
	ContainerName string `mapstructure:"container_name"`
	CDNURL        string `mapstructure:"cdn_url"`
}

// S3StorageConfig holds S3-compatible storage configuration
type S3StorageConfig struct {
	// Endpoint is optional, for MinIO and other S3-compatible services
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`

	// AuthMethod is one of "default", "static", "oidc", "assume_role"
	AuthMethod string `mapstructure:"auth_method"`

	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	RoleARN              string `mapstructure:"role_arn"`
	RoleSessionName      string `mapstructure:"role_session_name"`
	ExternalID           string `mapstructure:"external_id"`
	WebIdentityTokenFile string `mapstructure:"web_identity_token_file"`
}

// GCSStorageConfig holds Google Cloud Storage configuration
type GCSStorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	ProjectID string `mapstructure:"project_id"`
	// AuthMethod is one of "default", "service_account", "workload_identity", "none"
	AuthMethod      string `mapstructure:"auth_method"`
	CredentialsFile string `mapstructure:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	Endpoint        string `mapstructure:"endpoint"`
}

// LocalStorageConfig holds local filesystem storage configuration
type LocalStorageConfig struct {
	BasePath      string `mapstructure:"base_path"`
	ServeDirectly bool   `mapstructure:"serve_directly"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	RefreshWindow  time.Duration `mapstructure:"refresh_window"`
	OIDC           OIDCConfig    `mapstructure:"oidc"`
}

// OIDCConfig holds generic OIDC provider configuration
type OIDCConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	IssuerURL    string   `mapstructure:"issuer_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
	// AutoProvision creates a user record on first login when no account
	// with the same email exists.
	AutoProvision bool `mapstructure:"auto_provision"`
}

// EncryptionConfig holds the passphrase used for integration secrets at rest.
type EncryptionConfig struct {
	Key string `mapstructure:"key"`
}

// RedisConfig holds the optional Redis connection. When disabled, caches and
// rate limiters run in-process.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds TTLs for cached public artifacts
type CacheConfig struct {
	SitemapTTL time.Duration `mapstructure:"sitemap_ttl"`
	MenuTTL    time.Duration `mapstructure:"menu_ttl"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	TLS          TLSConfig          `mapstructure:"tls"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// RateLimitingConfig holds rate limiting configuration
type RateLimitingConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
	// FeedbackPerHour caps public feedback submissions per client IP.
	FeedbackPerHour int `mapstructure:"feedback_per_hour"`
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string        `mapstructure:"dsn"`
	Environment string        `mapstructure:"environment"`
	Release     string        `mapstructure:"release"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// EventsPerSecond throttles outbound events; bursts up to twice this value.
	EventsPerSecond float64 `mapstructure:"events_per_second"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	ServiceName string        `mapstructure:"service_name"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// AuditConfig holds audit logging configuration
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// LogFailedRequests records write requests that ended in 4xx/5xx
	LogFailedRequests bool `mapstructure:"log_failed_requests"`
	// WebhookURL and FilePath optionally copy every entry to a SIEM endpoint
	// or a JSON-lines file.
	WebhookURL     string            `mapstructure:"webhook_url"`
	WebhookHeaders map[string]string `mapstructure:"webhook_headers"`
	FilePath       string            `mapstructure:"file_path"`
}

// JobsConfig holds background job schedules (robfig/cron spec strings)
type JobsConfig struct {
	SitemapWarmSchedule string `mapstructure:"sitemap_warm_schedule"`
}

// QRConfig holds QR code rendering defaults
type QRConfig struct {
	DefaultSize int `mapstructure:"default_size"`
	MaxSize     int `mapstructure:"max_size"`
}

// unprefixedEnv lists keys that are also read from bare variable names shared
// with the web frontend. The MENUHUB_ form still takes precedence.
var unprefixedEnv = map[string][]string{
	"encryption.key":         {"ENCRYPTION_KEY"},
	"sentry.dsn":             {"SENTRY_DSN"},
	"app.environment":        {"APP_ENV", "NODE_ENV"},
	"app.url":                {"APP_URL"},
	"server.deployment_host": {"VERCEL_URL"},
}

// bindEnvVars explicitly binds environment variables to config keys.
// AutomaticEnv() alone doesn't work with nested structs during Unmarshal.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// App
		"app.name",
		"app.environment",
		"app.url",

		// Database
		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.public_url",
		"server.deployment_host",
		"server.read_timeout",
		"server.write_timeout",

		// Storage
		"storage.default_backend",
		"storage.azure.account_name",
		"storage.azure.account_key",
		"storage.azure.container_name",
		"storage.azure.cdn_url",
		"storage.s3.endpoint",
		"storage.s3.region",
		"storage.s3.bucket",
		"storage.s3.auth_method",
		"storage.s3.access_key_id",
		"storage.s3.secret_access_key",
		"storage.s3.role_arn",
		"storage.s3.role_session_name",
		"storage.s3.external_id",
		"storage.s3.web_identity_token_file",
		"storage.gcs.bucket",
		"storage.gcs.project_id",
		"storage.gcs.auth_method",
		"storage.gcs.credentials_file",
		"storage.gcs.credentials_json",
		"storage.gcs.endpoint",
		"storage.local.base_path",
		"storage.local.serve_directly",

		// Auth
		"auth.access_token_ttl",
		"auth.refresh_window",
		"auth.oidc.enabled",
		"auth.oidc.issuer_url",
		"auth.oidc.client_id",
		"auth.oidc.client_secret",
		"auth.oidc.redirect_url",
		"auth.oidc.scopes",
		"auth.oidc.auto_provision",

		// Secrets, cache
		"encryption.key",
		"redis.enabled",
		"redis.addr",
		"redis.password",
		"redis.db",
		"cache.sitemap_ttl",
		"cache.menu_ttl",
		"cache.key_prefix",

		// Security
		"security.cors.allowed_origins",
		"security.cors.allowed_methods",
		"security.rate_limiting.enabled",
		"security.rate_limiting.requests_per_minute",
		"security.rate_limiting.burst",
		"security.rate_limiting.feedback_per_hour",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		// Sentry
		"sentry.dsn",
		"sentry.environment",
		"sentry.release",
		"sentry.timeout",
		"sentry.events_per_second",

		// Logging / telemetry
		"logging.level",
		"logging.format",
		"telemetry.service_name",
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",

		"audit.enabled",
		"audit.log_failed_requests",
		"audit.webhook_url",
		"audit.file_path",
		"jobs.sitemap_warm_schedule",
		"qr.default_size",
		"qr.max_size",
	}
	for _, key := range keys {
		names := []string{key}
		if extra, ok := unprefixedEnv[key]; ok {
			names = append(names, "MENUHUB_"+envKey(key))
			names = append(names, extra...)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

func envKey(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	_, cfg, err := load(configPath)
	return cfg, err
}

// Watch loads the configuration and invokes onChange with a freshly validated
// Config each time the config file changes on disk. Invalid edits are logged
// and ignored. Without a config file there is nothing to watch.
func Watch(configPath string, onChange func(*Config)) (*Config, error) {
	v, cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() == "" {
		return cfg, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			slog.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		slog.Info("configuration reloaded", "file", e.Name, "op", e.Op.String())
		onChange(next)
	})
	v.WatchConfig()
	return cfg, nil
}

func load(configPath string) (*viper.Viper, *Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/menuhub")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	v.SetEnvPrefix("MENUHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand environment variables in sensitive fields
	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.Storage.Azure.AccountKey = expandEnv(cfg.Storage.Azure.AccountKey)
	cfg.Storage.S3.AccessKeyID = expandEnv(cfg.Storage.S3.AccessKeyID)
	cfg.Storage.S3.SecretAccessKey = expandEnv(cfg.Storage.S3.SecretAccessKey)
	cfg.Auth.OIDC.ClientSecret = expandEnv(cfg.Auth.OIDC.ClientSecret)
	cfg.Redis.Password = expandEnv(cfg.Redis.Password)
	cfg.Encryption.Key = expandEnv(cfg.Encryption.Key)

	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.App.Environment
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "MenuHub")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.url", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.deployment_host", "")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "menuhub")
	v.SetDefault("database.user", "menuhub")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	v.SetDefault("storage.default_backend", "local")
	v.SetDefault("storage.local.base_path", "./storage")
	v.SetDefault("storage.local.serve_directly", true)

	v.SetDefault("auth.access_token_ttl", "1h")
	v.SetDefault("auth.refresh_window", "24h")
	v.SetDefault("auth.oidc.enabled", false)
	v.SetDefault("auth.oidc.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("auth.oidc.auto_provision", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.sitemap_ttl", "1h")
	v.SetDefault("cache.menu_ttl", "5m")
	v.SetDefault("cache.key_prefix", "menuhub:")

	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.requests_per_minute", 60)
	v.SetDefault("security.rate_limiting.burst", 10)
	v.SetDefault("security.rate_limiting.feedback_per_hour", 10)
	v.SetDefault("security.tls.enabled", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.timeout", "3s")
	v.SetDefault("sentry.events_per_second", 5.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.service_name", "menuhub")
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.log_failed_requests", false)
	v.SetDefault("jobs.sitemap_warm_schedule", "@every 15m")
	v.SetDefault("qr.default_size", 512)
	v.SetDefault("qr.max_size", 2048)
}

// expandEnv expands environment variables in the format ${VAR_NAME}
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	validBackends := map[string]bool{"azure": true, "s3": true, "gcs": true, "local": true}
	if !validBackends[c.Storage.DefaultBackend] {
		return fmt.Errorf("invalid storage backend: %s (must be azure, s3, gcs, or local)", c.Storage.DefaultBackend)
	}

	switch c.Storage.DefaultBackend {
	case "azure":
		if c.Storage.Azure.AccountName == "" {
			return fmt.Errorf("storage.azure.account_name is required when using Azure backend")
		}
		if c.Storage.Azure.AccountKey == "" {
			return fmt.Errorf("storage.azure.account_key is required when using Azure backend")
		}
		if c.Storage.Azure.ContainerName == "" {
			return fmt.Errorf("storage.azure.container_name is required when using Azure backend")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when using S3 backend")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when using S3 backend")
		}
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required when using GCS backend")
		}
	case "local":
		if c.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path is required when using local backend")
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be positive")
	}

	if c.Auth.OIDC.Enabled {
		if c.Auth.OIDC.IssuerURL == "" {
			return fmt.Errorf("auth.oidc.issuer_url is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("auth.oidc.client_id is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientSecret == "" {
			return fmt.Errorf("auth.oidc.client_secret is required when OIDC is enabled")
		}
	}

	if c.App.IsProductionLike() && c.Encryption.Key == "" {
		return fmt.Errorf("encryption.key (ENCRYPTION_KEY) is required when app.environment is %s", c.App.Environment)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when Redis is enabled")
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	if c.QR.DefaultSize <= 0 || c.QR.MaxSize < c.QR.DefaultSize {
		return fmt.Errorf("invalid qr sizes: default %d, max %d", c.QR.DefaultSize, c.QR.MaxSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
