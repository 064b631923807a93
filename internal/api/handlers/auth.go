package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/expotrade/server/internal/api/problem"
	"github.com/expotrade/server/internal/auth"
	"github.com/expotrade/server/internal/domain/users"
	"github.com/expotrade/server/internal/metrics"
)

// UserService is the slice of the users domain the HTTP layer needs.
type UserService interface {
	Login(ctx context.Context, username, password string) (auth.TokenPair, users.Account, error)
	BootstrapAdmin(ctx context.Context, username, email, password string) (bool, error)
	Invite(ctx context.Context, params users.InviteParams) (users.TeamMember, error)
	SendOTP(ctx context.Context, token, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	CreatePassword(ctx context.Context, params users.CreatePasswordParams) (auth.TokenPair, users.Account, error)
	ListTeam(ctx context.Context) ([]users.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id string) error
}

type AuthHandler struct {
	service UserService
	env     string
}

func NewAuthHandler(service UserService, env string) *AuthHandler {
	return &AuthHandler{service: service, env: env}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    users.Account `json:"user"`
}

// Login issues a token pair. Bad credentials are a 400, matching the
// admin frontend's error handling.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, h.env, &req) {
		return
	}

	pair, account, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid username or password", err, h.env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Login failed", err, h.env)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh, User: account})
}

// Default bootstrap credentials; meant to be changed immediately after
// first login.
const (
	bootstrapUsername = "admin"
	bootstrapPassword = "admin123"
)

// CreateAdmin provisions the default superuser if it does not exist yet.
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.BootstrapAdmin(r.Context(), bootstrapUsername, "", bootstrapPassword)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Admin bootstrap failed", err, h.env)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, map[string]string{"message": "admin user already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "admin user created"})
}
