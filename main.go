package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ulule/limiter/v3"

	"github.com/msomdec/project-planner/internal/auth"
	"github.com/msomdec/project-planner/internal/config"
	"github.com/msomdec/project-planner/internal/handler"
	"github.com/msomdec/project-planner/internal/repository"
	"github.com/msomdec/project-planner/internal/service"
)

const version = "2.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	if cfg.Auth.SecretKey == config.InsecureDefaultSecret {
		slog.Warn("using the development signing key; set SECRET_KEY")
	}

	ctx := context.Background()

	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open database", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied", "backend", store.Kind())

	hasher, err := auth.NewMultiHasher(cfg.Auth.PasswordHasher, cfg.Auth.BcryptCost, auth.DefaultArgon2Params())
	if err != nil {
		slog.Error("invalid password hasher", "error", err)
		os.Exit(1)
	}
	tokens := auth.NewTokenService(cfg.Auth.SecretKey)

	var loginLimiter *service.TokenBucket
	if cfg.Server.LoginRate != "" {
		rate, err := limiter.NewRateFromFormatted(cfg.Server.LoginRate)
		if err != nil {
			slog.Error("invalid LOGIN_RATE", "error", err)
			os.Exit(1)
		}
		loginLimiter = service.NewLoginLimiter(rate.Limit, rate.Period)
		defer loginLimiter.Stop()
	}

	authService := service.NewAuthService(store.Users(), hasher, tokens, cfg.Auth.AccessTokenTTL, loginLimiter)
	projectService := service.NewProjectService(store)
	taskService := service.NewTaskService(store)
	categoryService := service.NewCategoryService(store.Categories())

	// Seed default categories (idempotent).
	seeded, err := categoryService.SeedDefaults(ctx)
	if err != nil {
		slog.Error("failed to seed categories", "error", err)
		os.Exit(1)
	}
	slog.Info("default categories seeded", "created", seeded)

	if cfg.Admin.Username != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			slog.Error("failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
		if created {
			slog.Info("admin account created", "username", cfg.Admin.Username)
		}
	}

	router, err := handler.NewRouter(handler.Deps{
		Auth:           authService,
		Projects:       projectService,
		Tasks:          taskService,
		Categories:     categoryService,
		Store:          store,
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginRate:      cfg.Server.LoginRate,
		TrustProxy:     cfg.Server.TrustProxyHeaders,
		Development:    !cfg.IsProduction(),
		Metrics:        cfg.Server.MetricsEnabled,
	})
	if err != nil {
		slog.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "environment", cfg.Server.Environment, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
