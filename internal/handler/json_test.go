package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/project-planner/internal/domain"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		code   int
		detail string
	}{
		{fmt.Errorf("%w: name is required", domain.ErrInvalidInput), http.StatusBadRequest, "Name is required"},
		{domain.ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
		{domain.ErrDuplicateUsername, http.StatusBadRequest, "Username already registered"},
		{domain.ErrDuplicateEmail, http.StatusBadRequest, "Email already registered"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "Could not validate credentials"},
		{domain.ErrForbidden, http.StatusForbidden, "Not enough permissions"},
		{fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound, "Widget not found"},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many attempts, try again later"},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), "Widget", tt.err)
		if rec.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
		}
		want := fmt.Sprintf("{\"detail\":%q}\n", tt.detail)
		if rec.Body.String() != want {
			t.Errorf("%v: body = %s, want %s", tt.err, rec.Body, want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", tt.header)
		token, ok := bearerToken(r)
		if token != tt.token || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, token, ok, tt.token, tt.ok)
		}
	}
}

func TestParseCompletedDate(t *testing.T) {
	for _, s := range []string{"2026-03-01", "2026-03-01T12:30:00Z", "2026-03-01T14:30:00+02:00"} {
		if _, ok := parseCompletedDate(s); !ok {
			t.Errorf("parseCompletedDate(%q) rejected", s)
		}
	}
	got, _ := parseCompletedDate("2026-03-01T14:30:00+02:00")
	if got.Hour() != 12 || got.Location().String() != "UTC" {
		t.Errorf("expected UTC normalisation, got %v", got)
	}
	if _, ok := parseCompletedDate("03/01/2026"); ok {
		t.Error("expected rejection of non-ISO date")
	}
}
