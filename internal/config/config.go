// Package config builds the process configuration once at startup.
// The returned Config is treated as immutable and passed to the components
// that need it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// InsecureDefaultSecret is the development signing key. It is rejected in
// production.
const InsecureDefaultSecret = "dev-secret-change-me-in-production"

const (
	BackendSQLite = "sqlite"
	BackendHosted = "hosted"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Admin    AdminConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	LoginRate      string // ulule/limiter format, e.g. "10-M"; empty disables
	MetricsEnabled bool

	// TrustProxyHeaders keys client IPs on X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool
}

type AuthConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
	PasswordHasher string // "bcrypt" or "argon2id"
	BcryptCost     int
}

type StoreConfig struct {
	Backend      string
	DatabasePath string // sqlite backend
	HostedURL    string // hosted backend connection endpoint
	HostedKey    string // hosted backend access key
}

// AdminConfig optionally bootstraps an admin account at startup.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Load reads an optional .env file (or the files named in envFiles), then
// the process environment, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8001")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:8000")
	v.SetDefault("LOGIN_RATE", "10-M")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("PASSWORD_HASHER", "bcrypt")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("STORE_BACKEND", BackendSQLite)
	v.SetDefault("DATABASE_PATH", "planner.db")

	secret := v.GetString("SECRET_KEY")
	if secret == "" {
		secret = v.GetString("JWT_SECRET")
	}
	if secret == "" {
		secret = InsecureDefaultSecret
	}

	ttl, err := time.ParseDuration(v.GetString("ACCESS_TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("parse ACCESS_TOKEN_TTL: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	hostedKey := v.GetString("HOSTED_DB_KEY")
	if hostedKey == "" {
		hostedKey = v.GetString("SUPABASE_KEY")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              v.GetString("PORT"),
			Environment:       v.GetString("ENVIRONMENT"),
			AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
			LoginRate:         v.GetString("LOGIN_RATE"),
			MetricsEnabled:    v.GetBool("METRICS_ENABLED"),
			TrustProxyHeaders: v.GetBool("TRUST_PROXY_HEADERS"),
		},
		Auth: AuthConfig{
			SecretKey:      secret,
			AccessTokenTTL: ttl,
			PasswordHasher: strings.ToLower(v.GetString("PASSWORD_HASHER")),
			BcryptCost:     v.GetInt("BCRYPT_COST"),
		},
		Store: StoreConfig{
			Backend:      strings.ToLower(v.GetString("STORE_BACKEND")),
			DatabasePath: v.GetString("DATABASE_PATH"),
			HostedURL:    v.GetString("HOSTED_DB_URL"),
			HostedKey:    hostedKey,
		},
		Admin: AdminConfig{
			Username: v.GetString("ADMIN_USERNAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		LogLevel: level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem that must stop startup.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() {
		if c.Auth.SecretKey == InsecureDefaultSecret {
			errs = append(errs, errors.New("SECRET_KEY must be set in production"))
		} else if len(c.Auth.SecretKey) < 32 {
			errs = append(errs, errors.New("SECRET_KEY must be at least 32 characters in production"))
		}
		for _, o := range c.Server.AllowedOrigins {
			if o == "*" {
				errs = append(errs, errors.New("ALLOWED_ORIGINS must not contain * in production"))
			}
		}
	}

	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Auth.BcryptCost))
	}
	if c.Auth.PasswordHasher != "bcrypt" && c.Auth.PasswordHasher != "argon2id" {
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2id, got %q", c.Auth.PasswordHasher))
	}

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite backend"))
		}
	case BackendHosted:
		if c.Store.HostedURL == "" || c.Store.HostedKey == "" {
			errs = append(errs, errors.New("HOSTED_DB_URL and HOSTED_DB_KEY are required for the hosted backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be sqlite or hosted, got %q", c.Store.Backend))
	}

	if c.Admin.Username != "" && (c.Admin.Email == "" || len(c.Admin.Password) < 8) {
		errs = append(errs, errors.New("ADMIN_USERNAME requires ADMIN_EMAIL and an ADMIN_PASSWORD of at least 8 characters"))
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
