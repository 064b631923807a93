package handlers

import (
	"errors"
	"net/http"

	"github.com/expotrade/server/internal/api/middleware"
	"github.com/expotrade/server/internal/api/problem"
	"github.com/expotrade/server/internal/audit"
	"github.com/expotrade/server/internal/domain/users"
)

type TeamHandler struct {
	service UserService
	audits  *audit.Logger
	env     string
}

func NewTeamHandler(service UserService, audits *audit.Logger, env string) *TeamHandler {
	return &TeamHandler{service: service, audits: audits, env: env}
}

func (h *TeamHandler) actor(r *http.Request) string {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return claims.Username
	}
	return "unknown"
}

type inviteRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Create invites a new manager or sales member.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeJSON(w, r, h.env, &req) {
		return
	}

	member, err := h.service.Invite(r.Context(), users.InviteParams{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		h.audits.FromRequest(r, h.actor(r), audit.Entry{
			Action:       "team.invite",
			ResourceType: "user",
			Success:      false,
			Detail:       err.Error(),
		})
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			// Duplicate email is a 400, matching the frontend's contract.
			problem.Write(w, r, http.StatusBadRequest, problem.TypeConflict, "Email already registered", err, h.env)
		case errors.Is(err, users.ErrInvalidRole),
			errors.Is(err, users.ErrNameRequired),
			errors.Is(err, users.ErrInvalidEmail):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid invitation", err, h.env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Invitation failed", err, h.env)
		}
		return
	}

	h.audits.FromRequest(r, h.actor(r), audit.Entry{
		Action:       "team.invite",
		ResourceType: "user",
		ResourceID:   member.ID,
		Success:      true,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "invitation sent",
		"member":  member,
	})
}

// List returns the manager and sales accounts.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListTeam(r.Context())
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Failed to list team", err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": members})
}

// Delete removes a team member by id. Admin accounts are never visible
// here and come back as 404.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	if err := h.service.DeleteTeamMember(r.Context(), id); err != nil {
		if errors.Is(err, users.ErrTeamMemberNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Team member not found", err, h.env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Failed to delete team member", err, h.env)
		return
	}

	h.audits.FromRequest(r, h.actor(r), audit.Entry{
		Action:       "team.delete",
		ResourceType: "user",
		ResourceID:   id,
		Success:      true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "team member deleted"})
}
