package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// clearSharedEnv blanks the unprefixed variables so the host environment
// cannot leak into Load. Viper treats empty variables as unset.
func clearSharedEnv(t *testing.T) {
	t.Helper()
	for _, names := range unprefixedEnv {
		for _, n := range names {
			t.Setenv(n, "")
		}
	}
	t.Setenv("MENUHUB_APP_ENVIRONMENT", "")
	t.Setenv("MENUHUB_ENCRYPTION_KEY", "")
}

// ---------------------------------------------------------------------------
// DatabaseConfig.GetDSN
// ---------------------------------------------------------------------------

func TestGetDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "standard config",
			cfg: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "menuhub",
				Password: "secret",
				Name:     "menuhub",
				SSLMode:  "require",
			},
			want: "host=localhost port=5432 user=menuhub password=secret dbname=menuhub sslmode=require",
		},
		{
			name: "empty password",
			cfg: DatabaseConfig{
				Host:    "db.internal",
				Port:    5433,
				User:    "app",
				Name:    "tenants",
				SSLMode: "disable",
			},
			want: "host=db.internal port=5433 user=app password= dbname=tenants sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetDSN(); got != tt.want {
				t.Errorf("GetDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetAddress(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{"default", ServerConfig{Host: "0.0.0.0", Port: 8080}, "0.0.0.0:8080"},
		{"empty host", ServerConfig{Port: 8080}, ":8080"},
		{"localhost", ServerConfig{Host: "localhost", Port: 3000}, "localhost:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetAddress(); got != tt.want {
				t.Errorf("GetAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// URL resolution
// ---------------------------------------------------------------------------

func TestGetBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{"public url wins", ServerConfig{PublicURL: "https://api.menuhub.ma/", BaseURL: "http://internal:8080", Port: 8080}, "https://api.menuhub.ma"},
		{"base url", ServerConfig{BaseURL: "http://internal:8080", DeploymentHost: "x.example.app", Port: 8080}, "http://internal:8080"},
		{"deployment host gets https", ServerConfig{DeploymentHost: "menuhub-git-main.example.app", Port: 8080}, "https://menuhub-git-main.example.app"},
		{"deployment host with scheme", ServerConfig{DeploymentHost: "https://preview.example.app/", Port: 8080}, "https://preview.example.app"},
		{"localhost fallback", ServerConfig{Port: 3000}, "http://localhost:3000"},
		{"whitespace ignored", ServerConfig{PublicURL: "   ", Port: 8080}, "http://localhost:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetBaseURL(); got != tt.want {
				t.Errorf("GetBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetAppURL(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8080}}
	if got := cfg.GetAppURL(); got != "http://localhost:8080" {
		t.Errorf("GetAppURL() fallback = %q, want http://localhost:8080", got)
	}

	cfg.App.URL = "https://menuhub.ma/"
	if got := cfg.GetAppURL(); got != "https://menuhub.ma" {
		t.Errorf("GetAppURL() = %q, want https://menuhub.ma", got)
	}
}

func TestIsProductionLike(t *testing.T) {
	tests := map[string]bool{
		"production":  true,
		"Production":  true,
		" staging ":   true,
		"development": false,
		"test":        false,
		"":            false,
		"preview":     false,
	}
	for env, want := range tests {
		a := AppConfig{Environment: env}
		if got := a.IsProductionLike(); got != want {
			t.Errorf("IsProductionLike(%q) = %v, want %v", env, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Config.Validate
// ---------------------------------------------------------------------------

func minimalValidConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host: "localhost",
			Name: "menuhub",
			User: "menuhub",
		},
		Storage: StorageConfig{
			DefaultBackend: "local",
			Local:          LocalStorageConfig{BasePath: "./storage"},
		},
		Auth:    AuthConfig{AccessTokenTTL: time.Hour},
		QR:      QRConfig{DefaultSize: 512, MaxSize: 2048},
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid minimal config passes", func(t *testing.T) {
		if err := minimalValidConfig().Validate(); err != nil {
			t.Errorf("Validate() unexpected error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"invalid server port 0", func(c *Config) { c.Server.Port = 0 }},
		{"invalid server port 70000", func(c *Config) { c.Server.Port = 70000 }},
		{"missing database host", func(c *Config) { c.Database.Host = "" }},
		{"missing database name", func(c *Config) { c.Database.Name = "" }},
		{"missing database user", func(c *Config) { c.Database.User = "" }},
		{"invalid storage backend", func(c *Config) { c.Storage.DefaultBackend = "ftp" }},
		{"azure backend missing account_name", func(c *Config) {
			c.Storage.DefaultBackend = "azure"
			c.Storage.Azure = AzureStorageConfig{AccountKey: "k", ContainerName: "qr"}
		}},
		{"s3 backend missing region", func(c *Config) {
			c.Storage.DefaultBackend = "s3"
			c.Storage.S3 = S3StorageConfig{Bucket: "qr"}
		}},
		{"gcs backend missing bucket", func(c *Config) { c.Storage.DefaultBackend = "gcs" }},
		{"local backend missing base_path", func(c *Config) { c.Storage.Local.BasePath = "" }},
		{"zero token ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }},
		{"oidc enabled missing issuer_url", func(c *Config) {
			c.Auth.OIDC = OIDCConfig{Enabled: true, ClientID: "id", ClientSecret: "secret"}
		}},
		{"production without encryption key", func(c *Config) { c.App.Environment = "production" }},
		{"staging without encryption key", func(c *Config) { c.App.Environment = "staging" }},
		{"redis enabled without addr", func(c *Config) { c.Redis = RedisConfig{Enabled: true} }},
		{"tls enabled missing key_file", func(c *Config) {
			c.Security.TLS = TLSConfig{Enabled: true, CertFile: "cert.pem"}
		}},
		{"qr max below default", func(c *Config) { c.QR.MaxSize = 100 }},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := minimalValidConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() expected error for %s, got nil", tc.name)
			}
		})
	}

	t.Run("production with encryption key passes", func(t *testing.T) {
		cfg := minimalValidConfig()
		cfg.App.Environment = "production"
		cfg.Encryption.Key = "passphrase"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error: %v", err)
		}
	})

	t.Run("development without encryption key passes", func(t *testing.T) {
		cfg := minimalValidConfig()
		cfg.Encryption.Key = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error: %v", err)
		}
	})
}

// ---------------------------------------------------------------------------
// expandEnv
// ---------------------------------------------------------------------------

func TestExpandEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_SECRET", "super-secret")
	if got := expandEnv("${CONFIG_TEST_SECRET}"); got != "super-secret" {
		t.Errorf("expandEnv() = %q, want super-secret", got)
	}
	if got := expandEnv("plain"); got != "plain" {
		t.Errorf("expandEnv() = %q, want plain", got)
	}
	if got := expandEnv("${CONFIG_TEST_UNSET_VAR}"); got != "" {
		t.Errorf("expandEnv() = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// writeTempConfig creates a temp YAML file and registers a cleanup to remove it.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "config-test-*.yaml")
	if err != nil {
		t.Fatal("CreateTemp:", err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	if _, err := f.WriteString(content); err != nil {
		t.Fatal("WriteString:", err)
	}
	f.Close()
	return f.Name()
}

func TestLoad_DefaultsWithNoFile(t *testing.T) {
	clearSharedEnv(t)
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		if !strings.Contains(err.Error(), "error reading config file") {
			t.Fatalf("Load() unexpected error kind: %v", err)
		}
		return
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default server port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	clearSharedEnv(t)
	const content = `
app:
  url: "https://menuhub.ma"
server:
  host: "testhost"
  port: 9999
database:
  host: "dbhost"
  name: "testdb"
  user: "testuser"
logging:
  level: "debug"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "testhost" {
		t.Errorf("Server.Host = %q, want testhost", cfg.Server.Host)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.Host != "dbhost" {
		t.Errorf("Database.Host = %q, want dbhost", cfg.Database.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if got := cfg.GetAppURL(); got != "https://menuhub.ma" {
		t.Errorf("GetAppURL() = %q, want https://menuhub.ma", got)
	}
	if got := cfg.Server.GetBaseURL(); got != "http://localhost:9999" {
		t.Errorf("GetBaseURL() = %q, want http://localhost:9999", got)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	clearSharedEnv(t)
	cfg, err := Load(writeTempConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.SSLMode != "require" {
		t.Errorf("default Database.SSLMode = %q, want require", cfg.Database.SSLMode)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("default App.Environment = %q, want development", cfg.App.Environment)
	}
	if cfg.Auth.AccessTokenTTL != time.Hour {
		t.Errorf("default Auth.AccessTokenTTL = %v, want 1h", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Cache.SitemapTTL != time.Hour {
		t.Errorf("default Cache.SitemapTTL = %v, want 1h", cfg.Cache.SitemapTTL)
	}
	if cfg.Jobs.SitemapWarmSchedule != "@every 15m" {
		t.Errorf("default Jobs.SitemapWarmSchedule = %q", cfg.Jobs.SitemapWarmSchedule)
	}
	if cfg.Sentry.Environment != "development" {
		t.Errorf("Sentry.Environment = %q, want it to follow app.environment", cfg.Sentry.Environment)
	}
}

func TestLoad_UnprefixedSharedEnv(t *testing.T) {
	clearSharedEnv(t)
	t.Setenv("NODE_ENV", "production")
	t.Setenv("ENCRYPTION_KEY", "shared-passphrase")
	t.Setenv("SENTRY_DSN", "https://key@o1.ingest.sentry.io/42")
	t.Setenv("APP_URL", "https://menuhub.ma")

	cfg, err := Load(writeTempConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.App.IsProductionLike() {
		t.Errorf("App.Environment = %q, want production from NODE_ENV", cfg.App.Environment)
	}
	if cfg.Encryption.Key != "shared-passphrase" {
		t.Errorf("Encryption.Key = %q, want value from ENCRYPTION_KEY", cfg.Encryption.Key)
	}
	if cfg.Sentry.DSN == "" {
		t.Error("Sentry.DSN empty, want value from SENTRY_DSN")
	}
	if cfg.App.URL != "https://menuhub.ma" {
		t.Errorf("App.URL = %q", cfg.App.URL)
	}
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	clearSharedEnv(t)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("MENUHUB_APP_ENVIRONMENT", "development")

	cfg, err := Load(writeTempConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("App.Environment = %q, want development", cfg.App.Environment)
	}
}

func TestLoad_ProductionWithoutKeyFails(t *testing.T) {
	clearSharedEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load(writeTempConfig(t, "logging:\n  level: info\n"))
	if err == nil || !strings.Contains(err.Error(), "encryption.key") {
		t.Fatalf("Load() error = %v, want missing encryption key", err)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	clearSharedEnv(t)
	t.Setenv("TEST_DB_PASS", "mysecret")
	const content = `
database:
  password: "${TEST_DB_PASS}"
logging:
  level: "info"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Database.Password != "mysecret" {
		t.Errorf("Database.Password = %q, want mysecret", cfg.Database.Password)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestWatch_InitialLoad(t *testing.T) {
	clearSharedEnv(t)
	called := false
	cfg, err := Watch(writeTempConfig(t, "logging:\n  level: warn\n"), func(*Config) { called = true })
	if err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if called {
		t.Error("onChange called before any file change")
	}
}
