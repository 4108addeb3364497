package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/project-planner/internal/auth"
	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/repository/sqlite"
	"github.com/msomdec/project-planner/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T, users domain.UserRepository, limiter *service.TokenBucket) *service.AuthService {
	t.Helper()
	// Use cost 4 for fast tests.
	tokens := auth.NewTokenService(testJWTSecret)
	return service.NewAuthService(users, auth.NewBcryptHasher(4), tokens, 30*time.Minute, limiter)
}

func register(t *testing.T, a *service.AuthService, username string) *domain.User {
	t.Helper()
	u, err := a.Register(context.Background(), service.Registration{
		Name:            username,
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	})
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	return u
}

// countingUsers records every call that reaches the store.
type countingUsers struct {
	domain.UserRepository
	calls int
}

func (c *countingUsers) Create(ctx context.Context, u *domain.User) error {
	c.calls++
	return c.UserRepository.Create(ctx, u)
}

func (c *countingUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	c.calls++
	return c.UserRepository.GetByUsername(ctx, username)
}

func (c *countingUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	c.calls++
	return c.UserRepository.GetByEmail(ctx, email)
}

// racingUsers hides existing rows from the pre-checks so that only the
// store constraint can catch a duplicate.
type racingUsers struct {
	domain.UserRepository
}

func (racingUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (racingUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
