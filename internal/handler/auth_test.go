package handler_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/project-planner/internal/auth"
	"github.com/msomdec/project-planner/internal/handler"
)

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name":            "Alice",
		"username":        "alice",
		"email":           "Alice@Example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body)
	}

	var res struct {
		Message string `json:"message"`
		User    struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
			IsActive bool   `json:"is_active"`
		} `json:"user"`
	}
	decode(t, rec, &res)
	if res.Message != "User created successfully" {
		t.Errorf("message = %q", res.Message)
	}
	if res.User.ID == "" || res.User.Username != "alice" {
		t.Errorf("unexpected user %+v", res.User)
	}
	if res.User.Email != "alice@example.com" {
		t.Errorf("email = %q, want lower-cased", res.User.Email)
	}
	if res.User.Role != "user" || !res.User.IsActive {
		t.Errorf("role/active = %q/%v", res.User.Role, res.User.IsActive)
	}
}

func TestRegister_Rejects(t *testing.T) {
	env := newTestEnv(t, "")
	env.signup(t, "alice")

	tests := []struct {
		name   string
		body   map[string]string
		detail string
	}{
		{
			name:   "passwords differ",
			body:   map[string]string{"name": "B", "username": "bob", "email": "bob@example.com", "password": "password123", "confirm_password": "password124"},
			detail: "Passwords do not match",
		},
		{
			name:   "duplicate username",
			body:   map[string]string{"name": "A", "username": "alice", "email": "other@example.com", "password": "password123"},
			detail: "Username already registered",
		},
		{
			name:   "duplicate email",
			body:   map[string]string{"name": "A", "username": "alice2", "email": "alice@example.com", "password": "password123"},
			detail: "Email already registered",
		},
		{
			name:   "bad email",
			body:   map[string]string{"name": "B", "username": "bob", "email": "not-an-email", "password": "password123"},
			detail: "email must be a valid email address",
		},
		{
			name:   "short password",
			body:   map[string]string{"name": "B", "username": "bob", "email": "bob@example.com", "password": "short"},
			detail: "password must be at least 8 characters",
		},
		{
			name:   "missing name",
			body:   map[string]string{"username": "bob", "email": "bob@example.com", "password": "password123"},
			detail: "name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/register", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
			if got := detail(t, rec); got != tt.detail {
				t.Errorf("detail = %q, want %q", got, tt.detail)
			}
		})
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	env := newTestEnv(t, "")

	for _, body := range []string{"{", `{"username":"a"} {"x":1}`, `[]`} {
		rec := env.do(t, http.MethodPost, "/auth/register", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestLogin_ByUsernameOrEmail(t *testing.T) {
	env := newTestEnv(t, "")
	id, _ := env.signup(t, "alice")

	for _, login := range []string{"alice", "alice@example.com"} {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": login,
			"password": "password123",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("login %q: expected 200, got %d", login, rec.Code)
		}
		var res struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			ExpiresIn   int    `json:"expires_in"`
			User        struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		decode(t, rec, &res)
		if res.AccessToken == "" || res.TokenType != "bearer" {
			t.Errorf("login %q: token %q type %q", login, res.AccessToken, res.TokenType)
		}
		if res.ExpiresIn != 1800 {
			t.Errorf("expires_in = %d, want 1800", res.ExpiresIn)
		}
		if res.User.ID != id {
			t.Errorf("user id = %q, want %q", res.User.ID, id)
		}
	}
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Alice",
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	for _, login := range []string{"Alice@Example.com", "ALICE@example.COM", "alice@example.com"} {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": login,
			"password": "password123",
		})
		if rec.Code != http.StatusOK {
			t.Errorf("login %q: expected 200, got %d: %s", login, rec.Code, rec.Body)
		}
	}

	// Usernames are not folded.
	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "ALICE",
		"password": "password123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login ALICE: expected 401, got %d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t, "")
	env.signup(t, "alice")

	for _, login := range []string{"alice", "nobody"} {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"username": login,
			"password": "wrong-password",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
			t.Errorf("WWW-Authenticate = %q", got)
		}
		if got := detail(t, rec); got != "Incorrect username or password" {
			t.Errorf("detail = %q", got)
		}
	}
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, "2-M")

	creds := map[string]string{"username": "alice", "password": "wrong-password"}
	for i := range 2 {
		if rec := env.do(t, http.MethodPost, "/auth/login", "", creds); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/auth/login", "", creds)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestLogin_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	env := newTestEnv(t, "2-M")

	creds := map[string]string{"username": "alice", "password": "wrong-password"}
	codes := make([]int, 0, 4)
	for i := range 4 {
		req := newJSONRequest(t, http.MethodPost, "/auth/login", creds)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		codes = append(codes, serve(env, req).Code)
	}
	want := []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("status codes = %v, want %v", codes, want)
		}
	}
}

func TestLogin_RateLimitTrustsProxyWhenConfigured(t *testing.T) {
	env := newTestEnv(t, "2-M", func(d *handler.Deps) { d.TrustProxy = true })

	creds := map[string]string{"username": "alice", "password": "wrong-password"}
	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := newJSONRequest(t, http.MethodPost, "/auth/login", creds)
		req.Header.Set("X-Forwarded-For", ip)
		if rec := serve(env, req); rec.Code != http.StatusUnauthorized {
			t.Fatalf("client %s: expected 401, got %d", ip, rec.Code)
		}
	}

	for i := range 3 {
		req := newJSONRequest(t, http.MethodPost, "/auth/login", creds)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := serve(env, req)
		if i < 2 && rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt %d: expected 429, got %d", i+1, rec.Code)
		}
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, "")
	id, token := env.signup(t, "alice")

	rec := env.do(t, http.MethodGet, "/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	decode(t, rec, &me)
	if me.ID != id || me.Username != "alice" {
		t.Errorf("unexpected me %+v", me)
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	env := newTestEnv(t, "")
	id, _ := env.signup(t, "alice")

	past := auth.NewTokenService(testJWTSecret, auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	expired, err := past.Issue(id, time.Minute)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	foreign, err := auth.NewTokenService("another-secret-key-for-unit-tests-98765").Issue(id, time.Hour)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	tests := []struct {
		name   string
		header string
		detail string
	}{
		{"missing", "", "Not authenticated"},
		{"wrong scheme", "Basic abc", "Not authenticated"},
		{"garbage token", "Bearer not-a-jwt", "Could not validate credentials"},
		{"expired token", "Bearer " + expired, "Could not validate credentials"},
		{"signed with another key", "Bearer " + foreign, "Could not validate credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/auth/me")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(env, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q", got)
			}
			if got := detail(t, rec); got != tt.detail {
				t.Errorf("detail = %q, want %q", got, tt.detail)
			}
		})
	}
}
