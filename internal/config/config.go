// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Row store engines.
const (
	RowStoreREST   = "rest"
	RowStoreSQLite = "sqlite"
)

// Storage providers for avatar URLs.
const (
	StoragePublic = "public"
	StorageS3     = "s3"
	StorageAzure  = "azure"
	StorageGCS    = "gcs"
)

// BackendConfig locates the hosted backend and its API keys.
type BackendConfig struct {
	URL            string // base URL, e.g. https://project.backend.example.com
	AnonKey        string // public key, subject to row-level security
	ServiceRoleKey string // privileged key, bypasses row-level security
}

// AuthConfig holds access-token validation and session settings.
type AuthConfig struct {
	IssuerURL      string        // OIDC issuer URL
	JWKSURL        string        // JWKS URL override (no .well-known discovery)
	JWTSecret      string        // HS256 secret the backend signs access tokens with
	Audience       string        // required JWT audience claim
	AllowedIssuers []string      // accepted issuers (defaults to [IssuerURL])
	JWKSCacheTTL   time.Duration // JWKS cache duration (default: 1h)
	SessionTTL     time.Duration // idle dashboard session lifetime (default: 12h)
}

// OIDCEnabled returns true when an external identity provider is configured.
func (a *AuthConfig) OIDCEnabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != ""
}

// LocalValidation returns true when access tokens can be validated without a
// backend round trip.
func (a *AuthConfig) LocalValidation() bool {
	return a.OIDCEnabled() || a.JWTSecret != ""
}

// Validate checks that the auth configuration is internally consistent.
func (a *AuthConfig) Validate() error {
	if a.IssuerURL != "" && a.Audience == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ISSUER_URL is set")
	}
	return nil
}

// StorageConfig selects how avatar object keys become URLs.
type StorageConfig struct {
	Provider string // public, s3, azure, or gcs (default: public)
	Bucket   string // bucket or container holding avatars (default: avatars)
	Expiry   time.Duration

	// S3 fields are nil when not configured.
	S3KeyID     *string
	S3Secret    *string
	S3Endpoint  *string
	S3Region    *string
	S3PathStyle bool

	AzureAccountName string
	AzureAccountKey  string

	GCSKeyFile string
}

// HasS3Config returns true if all required S3 fields are set.
func (s *StorageConfig) HasS3Config() bool {
	return s.S3KeyID != nil && s.S3Secret != nil &&
		s.S3Endpoint != nil && s.S3Region != nil
}

// Config holds the configuration for the dashboard server and CLI.
type Config struct {
	Backend BackendConfig
	Auth    AuthConfig
	Storage StorageConfig

	RowStore          string // rest (default when BACKEND_URL is set) or sqlite
	MetaDBPath        string // SQLite file for the embedded row store
	SeedDemoData      bool   // seed an empty SQLite store (default: true)
	RefreshSchedule   string // cron spec for reference-data refresh (default "@every 5m")
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			URL:            os.Getenv("BACKEND_URL"),
			AnonKey:        os.Getenv("BACKEND_ANON_KEY"),
			ServiceRoleKey: os.Getenv("BACKEND_SERVICE_ROLE_KEY"),
		},
		RowStore:        strings.ToLower(os.Getenv("ROW_STORE")),
		MetaDBPath:      os.Getenv("META_DB_PATH"),
		SeedDemoData:    parseBoolEnvDefault("SEED_DEMO_DATA", true),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		TLSCertFile:     os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:      os.Getenv("TLS_KEY_FILE"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		Env:             os.Getenv("ENV"),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}
	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	// Auth config
	cfg.Auth = AuthConfig{
		IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
		JWKSURL:   os.Getenv("AUTH_JWKS_URL"),
		JWTSecret: os.Getenv("BACKEND_JWT_SECRET"),
		Audience:  os.Getenv("AUTH_AUDIENCE"),
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitList(v)
	}
	if v := os.Getenv("AUTH_JWKS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.JWKSCacheTTL = d
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.SessionTTL = d
		}
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	// Storage config
	cfg.Storage = StorageConfig{
		Provider:         strings.ToLower(os.Getenv("STORAGE_PROVIDER")),
		Bucket:           os.Getenv("STORAGE_BUCKET"),
		S3PathStyle:      parseBoolEnvDefault("S3_PATH_STYLE", true),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
		GCSKeyFile:       os.Getenv("GCS_KEY_FILE"),
	}
	// S3 fields are only set if present
	if v := os.Getenv("S3_KEY_ID"); v != "" {
		cfg.Storage.S3KeyID = &v
	}
	if v := os.Getenv("S3_SECRET"); v != "" {
		cfg.Storage.S3Secret = &v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.Storage.S3Endpoint = &v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.Storage.S3Region = &v
	}
	if v := os.Getenv("STORAGE_URL_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.Expiry = d
		}
	}

	// Auth and storage defaults
	if cfg.Auth.JWKSCacheTTL == 0 {
		cfg.Auth.JWKSCacheTTL = time.Hour
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 12 * time.Hour
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = StoragePublic
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "avatars"
	}
	if cfg.Storage.Expiry == 0 {
		cfg.Storage.Expiry = time.Hour
	}
	if err := cfg.validateStorage(); err != nil {
		return nil, err
	}

	// Row store selection
	switch cfg.RowStore {
	case "":
		if cfg.Backend.URL == "" {
			cfg.RowStore = RowStoreSQLite
			cfg.Warnings = append(cfg.Warnings, "BACKEND_URL not set; serving the embedded SQLite demo store")
		} else {
			cfg.RowStore = RowStoreREST
		}
	case RowStoreREST, RowStoreSQLite:
	default:
		return nil, fmt.Errorf("ROW_STORE must be %q or %q, got %q", RowStoreREST, RowStoreSQLite, cfg.RowStore)
	}
	if cfg.RowStore == RowStoreREST {
		if cfg.Backend.URL == "" || cfg.Backend.AnonKey == "" {
			return nil, fmt.Errorf("BACKEND_URL and BACKEND_ANON_KEY must be set when ROW_STORE=%s", RowStoreREST)
		}
		if cfg.Backend.ServiceRoleKey == "" {
			cfg.Warnings = append(cfg.Warnings, "BACKEND_SERVICE_ROLE_KEY not set; reference data is read with the public key")
		}
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "dashboard.sqlite"
	}
	if cfg.RefreshSchedule == "" {
		cfg.RefreshSchedule = "@every 5m"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if !cfg.Auth.LocalValidation() && cfg.RowStore == RowStoreSQLite {
		cfg.Warnings = append(cfg.Warnings, "no token validation configured; set BACKEND_JWT_SECRET or AUTH_ISSUER_URL to enable sign-in")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.RowStore != RowStoreREST {
			return nil, fmt.Errorf("ROW_STORE=%s is a development store and is not allowed in production", cfg.RowStore)
		}
		if cfg.Backend.ServiceRoleKey == "" {
			return nil, fmt.Errorf("BACKEND_SERVICE_ROLE_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

func (c *Config) validateStorage() error {
	s := &c.Storage
	switch s.Provider {
	case StoragePublic:
		return nil
	case StorageS3:
		if !s.HasS3Config() {
			return fmt.Errorf("STORAGE_PROVIDER=s3 requires S3_KEY_ID, S3_SECRET, S3_ENDPOINT and S3_REGION")
		}
	case StorageAzure:
		if s.AzureAccountName == "" || s.AzureAccountKey == "" {
			return fmt.Errorf("STORAGE_PROVIDER=azure requires AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY")
		}
	case StorageGCS:
		if s.GCSKeyFile == "" {
			return fmt.Errorf("STORAGE_PROVIDER=gcs requires GCS_KEY_FILE")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", s.Provider)
	}
	return nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
