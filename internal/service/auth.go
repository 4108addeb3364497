package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/msomdec/project-planner/internal/auth"
	"github.com/msomdec/project-planner/internal/domain"
)

const minPasswordLength = 8

// AuthService handles user registration, login, and bearer token checks.
type AuthService struct {
	users   domain.UserRepository
	hasher  auth.Hasher
	tokens  *auth.TokenService
	ttl     time.Duration
	limiter *TokenBucket
}

// NewAuthService creates a new AuthService. limiter may be nil to disable
// per-account login throttling.
func NewAuthService(users domain.UserRepository, hasher auth.Hasher, tokens *auth.TokenService, ttl time.Duration, limiter *TokenBucket) *AuthService {
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		ttl:     ttl,
		limiter: limiter,
	}
}

// Registration is the input to Register.
type Registration struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult is a freshly issued access token and the user it belongs to.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *domain.User
}

// Register creates a new user account after validating inputs. Input
// problems are reported before the store is touched.
func (s *AuthService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if r.Name == "" || r.Username == "" || r.Email == "" || r.Password == "" {
		return nil, fmt.Errorf("%w: name, username, email, and password are required", domain.ErrInvalidInput)
	}
	if r.Password != r.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if len(r.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	if len(r.Password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, auth.MaxPasswordBytes)
	}
	if strings.Contains(r.Username, "@") {
		return nil, fmt.Errorf("%w: username must not contain @", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}

	// Friendly errors for the common case. The UNIQUE constraints still
	// decide races between concurrent registrations.
	if _, err := s.users.GetByUsername(ctx, r.Username); err == nil {
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, r.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	return s.createUser(ctx, r.Name, r.Username, r.Email, r.Password, domain.RoleUser)
}

// Login verifies credentials and issues an access token. login may be a
// username or an email address. Every credential failure is reported as
// domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrUnauthorized
	}

	key := strings.ToLower(login)
	if s.limiter != nil && !s.limiter.Allow(key) {
		slog.Warn("login throttled", "login", login)
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		slog.Info("login refused for inactive user", "user_id", user.ID)
		return nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.ID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if s.limiter != nil {
		s.limiter.Reset(key)
	}

	return &LoginResult{AccessToken: token, ExpiresIn: s.ttl, User: user}, nil
}

// Authenticate verifies a bearer token and returns its subject. Failures
// match domain.ErrUnauthorized; auth.ReasonOf recovers the cause.
func (s *AuthService) Authenticate(token string) (string, error) {
	return s.tokens.Verify(token)
}

// Me loads the user a token was issued to.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// EnsureAdmin creates an admin account unless the username is already
// taken. It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("check admin: %w", err)
	}

	if len(password) < minPasswordLength || len(password) > auth.MaxPasswordBytes {
		return false, fmt.Errorf("%w: admin password length", domain.ErrInvalidInput)
	}

	if _, err := s.createUser(ctx, "Administrator", username, strings.ToLower(email), password, domain.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, name, username, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
