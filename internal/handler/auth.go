package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/msomdec/project-planner/internal/domain"
	"github.com/msomdec/project-planner/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth, validate: newValidator()}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50,excludes=@"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	// Both spellings are accepted; the confirmation is optional.
	ConfirmPassword      *string `json:"confirmPassword"`
	ConfirmPasswordSnake *string `json:"confirm_password"`
}

func (r *registerRequest) confirmation() *string {
	if r.ConfirmPassword != nil {
		return r.ConfirmPassword
	}
	return r.ConfirmPasswordSnake
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"name":"...","username":"...","email":"...","password":"...","confirmPassword":"..."}
// Response: {"message":"...","user":{...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	confirm := req.Password
	if c := req.confirmation(); c != nil {
		if *c != req.Password {
			writeError(w, http.StatusBadRequest, "Passwords do not match")
			return
		}
		confirm = *c
	}

	user, err := h.auth.Register(r.Context(), service.Registration{
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		recordAuthAttempt("register", "rejected")
		writeServiceError(w, r, "User", err)
		return
	}
	recordAuthAttempt("register", "success")

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully",
		"user":    toUserDTO(user),
	})
}

type loginRequest struct {
	// Username may also hold an email address.
	Username string `json:"username" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// HandleLogin processes a JSON login request.
// POST /auth/login
// Request:  {"username":"...","password":"..."}
// Response: {"access_token":"...","token_type":"bearer","expires_in":1800,"user":{...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			recordAuthAttempt("login", "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		case errors.Is(err, domain.ErrTooManyAttempts):
			recordAuthAttempt("login", "throttled")
			writeServiceError(w, r, "User", err)
		default:
			recordAuthAttempt("login", "error")
			writeServiceError(w, r, "User", err)
		}
		return
	}
	recordAuthAttempt("login", "success")

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": res.AccessToken,
		"token_type":   "bearer",
		"expires_in":   int(res.ExpiresIn.Seconds()),
		"user":         toUserDTO(res.User),
	})
}

// HandleMe returns the authenticated user.
// GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, "User", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}
