package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expotrade/server/internal/auth"
	"github.com/expotrade/server/internal/config"
	"github.com/expotrade/server/internal/domain/content"
	"github.com/expotrade/server/internal/domain/registrations"
	"github.com/expotrade/server/internal/domain/users"
	"github.com/expotrade/server/internal/storage"
)

type stubUsers struct{}

func (stubUsers) Login(context.Context, string, string) (auth.TokenPair, users.Account, error) {
	return auth.TokenPair{}, users.Account{}, users.ErrInvalidCredentials
}
func (stubUsers) BootstrapAdmin(context.Context, string, string, string) (bool, error) {
	return false, nil
}
func (stubUsers) Invite(context.Context, users.InviteParams) (users.TeamMember, error) {
	return users.TeamMember{}, nil
}
func (stubUsers) SendOTP(context.Context, string, string) error   { return nil }
func (stubUsers) VerifyOTP(context.Context, string, string) error { return nil }
func (stubUsers) CreatePassword(context.Context, users.CreatePasswordParams) (auth.TokenPair, users.Account, error) {
	return auth.TokenPair{}, users.Account{}, nil
}
func (stubUsers) ListTeam(context.Context) ([]users.TeamMember, error) { return nil, nil }
func (stubUsers) DeleteTeamMember(context.Context, string) error       { return nil }

type stubRegistrations struct{}

func (stubRegistrations) ListExhibitors(context.Context) ([]storage.ExhibitorRegistration, error) {
	return nil, nil
}
func (stubRegistrations) CreateExhibitor(context.Context, registrations.ExhibitorInput) (storage.ExhibitorRegistration, error) {
	return storage.ExhibitorRegistration{ID: "reg1", Status: "pending"}, nil
}
func (stubRegistrations) GetExhibitor(context.Context, string) (storage.ExhibitorRegistration, error) {
	return storage.ExhibitorRegistration{}, nil
}
func (stubRegistrations) UpdateExhibitor(context.Context, string, registrations.ExhibitorInput) (storage.ExhibitorRegistration, error) {
	return storage.ExhibitorRegistration{}, nil
}
func (stubRegistrations) DeleteExhibitor(context.Context, string) error { return nil }
func (stubRegistrations) ListVisitors(context.Context) ([]storage.VisitorRegistration, error) {
	return nil, nil
}
func (stubRegistrations) CreateVisitor(context.Context, registrations.VisitorInput) (storage.VisitorRegistration, error) {
	return storage.VisitorRegistration{ID: "vis1"}, nil
}
func (stubRegistrations) GetVisitor(context.Context, string) (storage.VisitorRegistration, error) {
	return storage.VisitorRegistration{}, nil
}
func (stubRegistrations) UpdateVisitor(context.Context, string, registrations.VisitorInput) (storage.VisitorRegistration, error) {
	return storage.VisitorRegistration{}, nil
}
func (stubRegistrations) DeleteVisitor(context.Context, string) error { return nil }

type stubContent struct{}

func (stubContent) ListCategories(context.Context) ([]storage.Category, error) { return nil, nil }
func (stubContent) CreateCategory(context.Context, content.CategoryInput) (storage.Category, error) {
	return storage.Category{}, nil
}
func (stubContent) GetCategory(context.Context, string) (storage.Category, error) {
	return storage.Category{}, nil
}
func (stubContent) UpdateCategory(context.Context, string, content.CategoryInput) (storage.Category, error) {
	return storage.Category{}, nil
}
func (stubContent) DeleteCategory(context.Context, string) error         { return nil }
func (stubContent) ListEvents(context.Context) ([]storage.Event, error)  { return nil, nil }
func (stubContent) CreateEvent(context.Context, content.EventInput) (storage.Event, error) {
	return storage.Event{}, nil
}
func (stubContent) GetEvent(context.Context, string) (storage.Event, error) {
	return storage.Event{}, nil
}
func (stubContent) UpdateEvent(context.Context, string, content.EventInput) (storage.Event, error) {
	return storage.Event{}, nil
}
func (stubContent) DeleteEvent(context.Context, string) error                  { return nil }
func (stubContent) ListGallery(context.Context) ([]storage.GalleryImage, error) { return nil, nil }
func (stubContent) CreateGalleryImage(context.Context, content.GalleryInput) (storage.GalleryImage, error) {
	return storage.GalleryImage{}, nil
}
func (stubContent) GetGalleryImage(context.Context, string) (storage.GalleryImage, error) {
	return storage.GalleryImage{}, nil
}
func (stubContent) UpdateGalleryImage(context.Context, string, content.GalleryInput) (storage.GalleryImage, error) {
	return storage.GalleryImage{}, nil
}
func (stubContent) DeleteGalleryImage(context.Context, string) error { return nil }

func testRouter(t *testing.T, protectCRUD bool) http.Handler {
	t.Helper()

	tokens := auth.NewTokenManager("router-test-secret", time.Minute, time.Hour, "expotrade-test")
	cfg := config.Config{Environment: "test"}
	cfg.Auth.ProtectCRUD = protectCRUD
	return NewRouter(Dependencies{
		Config:        cfg,
		Logger:        zerolog.Nop(),
		Tokens:        tokens,
		Users:         stubUsers{},
		Registrations: stubRegistrations{},
		Content:       stubContent{},
		Build:         BuildInfo{Version: "0.1.0"},
	})
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := testRouter(t, false)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/events/", http.StatusOK},
		{http.MethodGet, "/api/categories/", http.StatusOK},
		{http.MethodGet, "/api/gallery/", http.StatusOK},
		{http.MethodGet, "/api/exhibitor-registrations/", http.StatusOK},
		{http.MethodGet, "/api/visitor-registrations/", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRouter_TeamRoutesRequireAuth(t *testing.T) {
	router := testRouter(t, false)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/team/list/"},
		{http.MethodPost, "/api/team/create/"},
		{http.MethodDelete, "/api/team/delete/u2/"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_ProtectedCRUDRequiresAuth(t *testing.T) {
	router := testRouter(t, true)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/exhibitor-registrations/"},
		{http.MethodGet, "/api/visitor-registrations/"},
		{http.MethodPost, "/api/events/"},
		{http.MethodDelete, "/api/gallery/g1/"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	// Form POSTs stay public even under the protected policy.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/exhibitor-registrations/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_AdminRoutesRejectNonAdmin(t *testing.T) {
	router := testRouter(t, true)
	tokens := auth.NewTokenManager("router-test-secret", time.Minute, time.Hour, "expotrade-test")
	pair, err := tokens.GeneratePair("u2", "sales-user", "sales@expotrade.events", "sales")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/team/list/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := testRouter(t, false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/login/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestMethodMux(t *testing.T) {
	mux := methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		http.MethodPost: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/test", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
}

func TestAllowedMethods(t *testing.T) {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, "DELETE, GET, POST, PUT", allowedMethods(map[string]http.Handler{
		http.MethodPut:    noop,
		http.MethodGet:    noop,
		http.MethodDelete: noop,
		http.MethodPost:   noop,
	}))
}
