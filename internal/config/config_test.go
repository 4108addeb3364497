package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/project-planner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "ALLOWED_ORIGINS", "LOGIN_RATE", "METRICS_ENABLED", "TRUST_PROXY_HEADERS",
		"SECRET_KEY", "JWT_SECRET", "ACCESS_TOKEN_TTL", "PASSWORD_HASHER", "BCRYPT_COST",
		"STORE_BACKEND", "DATABASE_PATH", "HOSTED_DB_URL", "HOSTED_DB_KEY", "SUPABASE_KEY",
		"ADMIN_USERNAME", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Server.Port)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"http://localhost:8000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, config.InsecureDefaultSecret, cfg.Auth.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordHasher)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "planner.db", cfg.Store.DatabasePath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.False(t, cfg.Server.TrustProxyHeaders)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("JWT_SECRET", "legacy-name-for-the-signing-key-0123456789")
	t.Setenv("ACCESS_TOKEN_TTL", "2h")
	t.Setenv("PASSWORD_HASHER", "ARGON2ID")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "legacy-name-for-the-signing-key-0123456789", cfg.Auth.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "argon2id", cfg.Auth.PasswordHasher)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Server.TrustProxyHeaders)
}

func TestLoad_ProductionRefusesInsecureSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")

	t.Setenv("SECRET_KEY", "too-short")
	_, err = config.Load()
	require.Error(t, err)

	t.Setenv("SECRET_KEY", "a-production-grade-secret-of-enough-length")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ProductionRefusesWildcardOrigin(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SECRET_KEY", "a-production-grade-secret-of-enough-length")
	t.Setenv("ALLOWED_ORIGINS", "*")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_HostedBackendRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "hosted")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOSTED_DB_URL")

	t.Setenv("HOSTED_DB_URL", "postgres://postgres@db.example.supabase.co:5432/postgres")
	t.Setenv("SUPABASE_KEY", "service-key")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.BackendHosted, cfg.Store.Backend)
	assert.Equal(t, "service-key", cfg.Store.HostedKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"ttl":     {"ACCESS_TOKEN_TTL", "soon"},
		"neg ttl": {"ACCESS_TOKEN_TTL", "-5m"},
		"cost":    {"BCRYPT_COST", "20"},
		"hasher":  {"PASSWORD_HASHER", "md5"},
		"backend": {"STORE_BACKEND", "mongo"},
		"level":   {"LOG_LEVEL", "loud"},
		"admin":   {"ADMIN_USERNAME", "root"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_PATH=/tmp/from-env-file.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DATABASE_PATH") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env-file.db", cfg.Store.DatabasePath)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
