package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expotrade/server/internal/api/problem"
	"github.com/expotrade/server/internal/audit"
	"github.com/expotrade/server/internal/domain/users"
)

func newTeamHandler(service UserService) *TeamHandler {
	return NewTeamHandler(service, audit.NewLogger(zerolog.Nop()), "test")
}

func TestTeamHandler_Create(t *testing.T) {
	service := new(mockUserService)
	handler := newTeamHandler(service)

	member := users.TeamMember{ID: "u2", Username: "pending_ab12cd34", Name: "Priya", Email: "priya@expotrade.events", Role: "sales", Status: "inactive"}
	service.On("Invite", mock.Anything, users.InviteParams{Name: "Priya", Email: "priya@expotrade.events", Role: "sales"}).
		Return(member, nil)

	rec := httptest.NewRecorder()
	handler.Create(rec, jsonRequest(t, http.MethodPost, "/api/team/create/", map[string]string{
		"name":  "Priya",
		"email": "priya@expotrade.events",
		"role":  "sales",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "invitation sent")
	service.AssertExpectations(t)
}

func TestTeamHandler_CreateEmailTaken(t *testing.T) {
	service := new(mockUserService)
	handler := newTeamHandler(service)

	service.On("Invite", mock.Anything, mock.Anything).
		Return(users.TeamMember{}, users.ErrEmailTaken)

	rec := httptest.NewRecorder()
	handler.Create(rec, jsonRequest(t, http.MethodPost, "/api/team/create/", map[string]string{
		"name":  "Priya",
		"email": "priya@expotrade.events",
		"role":  "sales",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeProblem(t, rec)
	assert.Equal(t, problem.TypeConflict, details.Type)
}

func TestTeamHandler_CreateInvalidRole(t *testing.T) {
	service := new(mockUserService)
	handler := newTeamHandler(service)

	service.On("Invite", mock.Anything, mock.Anything).
		Return(users.TeamMember{}, users.ErrInvalidRole)

	rec := httptest.NewRecorder()
	handler.Create(rec, jsonRequest(t, http.MethodPost, "/api/team/create/", map[string]string{
		"name":  "Priya",
		"email": "priya@expotrade.events",
		"role":  "admin",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamHandler_List(t *testing.T) {
	service := new(mockUserService)
	handler := newTeamHandler(service)

	service.On("ListTeam", mock.Anything).Return([]users.TeamMember{
		{ID: "u2", Username: "priya", Role: "sales", Status: "active"},
		{ID: "u3", Username: "pending_ff00aa11", Role: "manager", Status: "inactive"},
	}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/team/list/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"team"`)
	assert.Contains(t, rec.Body.String(), "priya")
}

func TestTeamHandler_Delete(t *testing.T) {
	service := new(mockUserService)
	handler := newTeamHandler(service)
	service.On("DeleteTeamMember", mock.Anything, "u2").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/team/delete/u2/", nil)
	req.SetPathValue("id", "u2")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")
}

func TestTeamHandler_DeleteNotFound(t *testing.T) {
	service := new(mockUserService)
	handler := newTeamHandler(service)
	service.On("DeleteTeamMember", mock.Anything, "nope").Return(users.ErrTeamMemberNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/api/team/delete/nope/", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	details := decodeProblem(t, rec)
	assert.Equal(t, problem.TypeNotFound, details.Type)
}
