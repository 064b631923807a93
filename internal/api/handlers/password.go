package handlers

import (
	"errors"
	"net/http"

	"github.com/expotrade/server/internal/api/problem"
	"github.com/expotrade/server/internal/domain/users"
)

// PasswordHandler serves the invitee-facing password setup flow: request
// a code, verify it, then set username and password.
type PasswordHandler struct {
	service UserService
	env     string
}

func NewPasswordHandler(service UserService, env string) *PasswordHandler {
	return &PasswordHandler{service: service, env: env}
}

// writeSetupError maps the shared invite/OTP failure modes. Returns false
// when the error was not one of them.
func (h *PasswordHandler) writeSetupError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, users.ErrTokenNotFound):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid setup token", err, h.env)
	case errors.Is(err, users.ErrTokenExpired):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeExpired, "Setup token has expired", err, h.env)
	case errors.Is(err, users.ErrEmailMismatch):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Email does not match invitation", err, h.env)
	case errors.Is(err, users.ErrInvalidEmail):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid email address", err, h.env)
	case errors.Is(err, users.ErrOTPNotFound):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "No verification code found", err, h.env)
	case errors.Is(err, users.ErrOTPExpired):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeExpired, "Verification code has expired", err, h.env)
	case errors.Is(err, users.ErrOTPMismatch):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Incorrect verification code", err, h.env)
	default:
		return false
	}
	return true
}

type sendOTPRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (h *PasswordHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decodeJSON(w, r, h.env, &req) {
		return
	}

	if err := h.service.SendOTP(r.Context(), req.Token, req.Email); err != nil {
		if !h.writeSetupError(w, r, err) {
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Failed to send verification code", err, h.env)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *PasswordHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, h.env, &req) {
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		if !h.writeSetupError(w, r, err) {
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Verification failed", err, h.env)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}

type createPasswordRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *PasswordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPasswordRequest
	if !decodeJSON(w, r, h.env, &req) {
		return
	}

	pair, account, err := h.service.CreatePassword(r.Context(), users.CreatePasswordParams{
		Token:    req.Token,
		Email:    req.Email,
		OTP:      req.OTP,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUsernameTaken):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeConflict, "Username already taken", err, h.env)
		case errors.Is(err, users.ErrUsernameRequired),
			errors.Is(err, users.ErrPasswordTooShort):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid username or password", err, h.env)
		default:
			if !h.writeSetupError(w, r, err) {
				problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Password setup failed", err, h.env)
			}
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh, User: account})
}
