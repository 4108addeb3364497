package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/msomdec/project-planner/internal/service"
)

// Deps collects everything the router needs.
type Deps struct {
	Auth       *service.AuthService
	Projects   *service.ProjectService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Store      Pinger
	Version    string

	AllowedOrigins []string
	// LoginRate throttles /auth requests per client IP, e.g. "20-M".
	// Empty disables it.
	LoginRate   string
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers; otherwise
	// the limiter keys on the socket address.
	TrustProxy  bool
	Development bool
	Metrics     bool
}

// NewRouter sets up all HTTP routes and wraps them in the middleware chain.
func NewRouter(d Deps) (http.Handler, error) {
	authLimit, err := newIPRateLimiter(d.LoginRate)
	if err != nil {
		return nil, fmt.Errorf("parse login rate: %w", err)
	}

	authH := NewAuthHandler(d.Auth)
	projectH := NewProjectHandler(d.Projects)
	taskH := NewTaskHandler(d.Tasks)
	categoryH := NewCategoryHandler(d.Categories)
	protected := RequireAuth(d.Auth)

	mux := http.NewServeMux()

	mux.Handle("GET /health", HandleHealth(d.Store, d.Version))
	if d.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Auth
	mux.Handle("POST /auth/register", authLimit(http.HandlerFunc(authH.HandleRegister)))
	mux.Handle("POST /auth/login", authLimit(http.HandlerFunc(authH.HandleLogin)))
	mux.Handle("GET /auth/me", protected(http.HandlerFunc(authH.HandleMe)))

	// Projects
	mux.Handle("GET /projects", protected(http.HandlerFunc(projectH.HandleList)))
	mux.Handle("POST /projects", protected(http.HandlerFunc(projectH.HandleCreate)))
	mux.Handle("GET /projects/{id}", protected(http.HandlerFunc(projectH.HandleGet)))
	mux.Handle("PUT /projects/{id}", protected(http.HandlerFunc(projectH.HandleUpdate)))
	mux.Handle("DELETE /projects/{id}", protected(http.HandlerFunc(projectH.HandleDelete)))
	mux.Handle("GET /projects/{id}/tasks", protected(http.HandlerFunc(projectH.HandleListTasks)))

	// Tasks
	mux.Handle("GET /tasks", protected(http.HandlerFunc(taskH.HandleList)))
	mux.Handle("POST /tasks", protected(http.HandlerFunc(taskH.HandleCreate)))
	mux.Handle("GET /tasks/{id}", protected(http.HandlerFunc(taskH.HandleGet)))
	mux.Handle("PUT /tasks/{id}", protected(http.HandlerFunc(taskH.HandleUpdate)))
	mux.Handle("DELETE /tasks/{id}", protected(http.HandlerFunc(taskH.HandleDelete)))

	// Categories
	mux.Handle("GET /categories", protected(http.HandlerFunc(categoryH.HandleList)))

	var h http.Handler = recordMetrics(mux)
	h = newCORS(d.AllowedOrigins)(h)
	h = newSecureHeaders(d.Development)(h)
	h = middleware.Recoverer(h)
	h = logRequests(h)
	if d.TrustProxy {
		h = middleware.RealIP(h)
	}
	h = middleware.RequestID(h)
	return h, nil
}
