package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BACKEND_URL", "BACKEND_ANON_KEY", "BACKEND_SERVICE_ROLE_KEY", "BACKEND_JWT_SECRET",
		"AUTH_ISSUER_URL", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_ALLOWED_ISSUERS", "AUTH_JWKS_CACHE_TTL", "SESSION_TTL",
		"ROW_STORE", "META_DB_PATH", "SEED_DEMO_DATA", "REFRESH_SCHEDULE",
		"STORAGE_PROVIDER", "STORAGE_BUCKET", "STORAGE_URL_EXPIRY", "S3_KEY_ID", "S3_SECRET", "S3_ENDPOINT", "S3_REGION", "S3_PATH_STYLE",
		"AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY", "GCS_KEY_FILE",
		"LISTEN_ADDR", "TLS_CERT_FILE", "TLS_KEY_FILE", "ALLOW_INSECURE_HTTP", "LOG_LEVEL", "ENV",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, RowStoreSQLite, cfg.RowStore)
	assert.Equal(t, "dashboard.sqlite", cfg.MetaDBPath)
	assert.True(t, cfg.SeedDemoData)
	assert.Equal(t, "@every 5m", cfg.RefreshSchedule)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StoragePublic, cfg.Storage.Provider)
	assert.Equal(t, "avatars", cfg.Storage.Bucket)
	assert.Equal(t, time.Hour, cfg.Storage.Expiry)
	assert.Equal(t, time.Hour, cfg.Auth.JWKSCacheTTL)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.InDelta(t, 100, cfg.RateLimitRPS, 0)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadFromEnv_RESTBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "https://project.backend.example.com")
	t.Setenv("BACKEND_ANON_KEY", "anon")
	t.Setenv("BACKEND_SERVICE_ROLE_KEY", "service")
	t.Setenv("BACKEND_JWT_SECRET", "jwt-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, RowStoreREST, cfg.RowStore)
	assert.Equal(t, "service", cfg.Backend.ServiceRoleKey)
	assert.True(t, cfg.Auth.LocalValidation())
	assert.False(t, cfg.Auth.OIDCEnabled())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv_RESTRequiresKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROW_STORE", "rest")
	t.Setenv("BACKEND_URL", "https://project.backend.example.com")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_ANON_KEY")
}

func TestLoadFromEnv_InvalidRowStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROW_STORE", "mongo")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_MissingServiceRoleKeyWarns(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "https://project.backend.example.com")
	t.Setenv("BACKEND_ANON_KEY", "anon")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Contains(t, cfg.Warnings[0], "BACKEND_SERVICE_ROLE_KEY")
}

func TestLoadFromEnv_Storage(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "s3 complete", env: map[string]string{"STORAGE_PROVIDER": "s3", "S3_KEY_ID": "k", "S3_SECRET": "s", "S3_ENDPOINT": "s3.example.com", "S3_REGION": "eu-central-1"}},
		{name: "s3 partial", env: map[string]string{"STORAGE_PROVIDER": "s3", "S3_KEY_ID": "k"}, wantErr: true},
		{name: "azure complete", env: map[string]string{"STORAGE_PROVIDER": "azure", "AZURE_ACCOUNT_NAME": "acct", "AZURE_ACCOUNT_KEY": "a2V5"}},
		{name: "azure missing key", env: map[string]string{"STORAGE_PROVIDER": "azure", "AZURE_ACCOUNT_NAME": "acct"}, wantErr: true},
		{name: "gcs missing key file", env: map[string]string{"STORAGE_PROVIDER": "GCS"}, wantErr: true},
		{name: "unknown provider", env: map[string]string{"STORAGE_PROVIDER": "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadFromEnv()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.env["STORAGE_PROVIDER"], cfg.Storage.Provider)
		})
	}
}

func TestLoadFromEnv_AudienceRequiredWithIssuer(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_ISSUER_URL", "https://issuer.example.com")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_AUDIENCE")
}

func TestLoadFromEnv_Production(t *testing.T) {
	base := map[string]string{
		"ENV":                      "production",
		"BACKEND_URL":              "https://project.backend.example.com",
		"BACKEND_ANON_KEY":         "anon",
		"BACKEND_SERVICE_ROLE_KEY": "service",
		"CORS_ALLOWED_ORIGINS":     "https://admin.example.com",
		"ALLOW_INSECURE_HTTP":      "true",
	}

	tests := []struct {
		name     string
		override map[string]string
		wantErr  string
	}{
		{name: "hardened"},
		{name: "sqlite store", override: map[string]string{"ROW_STORE": "sqlite"}, wantErr: "development store"},
		{name: "missing service key", override: map[string]string{"BACKEND_SERVICE_ROLE_KEY": ""}, wantErr: "BACKEND_SERVICE_ROLE_KEY"},
		{name: "cors wildcard", override: map[string]string{"CORS_ALLOWED_ORIGINS": "*"}, wantErr: "CORS wildcard"},
		{name: "no tls", override: map[string]string{"ALLOW_INSECURE_HTTP": ""}, wantErr: "TLS_CERT_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range base {
				t.Setenv(k, v)
			}
			for k, v := range tt.override {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO"} {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel().String(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := "# comment\nDASH_TEST_KEY=test_value\nexport DASH_TEST_QUOTED='quoted value'\nnot a pair\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("DASH_TEST_KEY")
		_ = os.Unsetenv("DASH_TEST_QUOTED")
	})

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "test_value", os.Getenv("DASH_TEST_KEY"))
	assert.Equal(t, "quoted value", os.Getenv("DASH_TEST_QUOTED"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("DASH_TEST_PRECEDENCE", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DASH_TEST_PRECEDENCE=from_file\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("DASH_TEST_PRECEDENCE"))
}
