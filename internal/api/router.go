// Package api wires the HTTP surface: routing, middleware ordering, and
// the version endpoint.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/expotrade/server/internal/api/handlers"
	"github.com/expotrade/server/internal/api/middleware"
	"github.com/expotrade/server/internal/audit"
	"github.com/expotrade/server/internal/auth"
	"github.com/expotrade/server/internal/config"
	"github.com/expotrade/server/internal/metrics"
)

// BuildInfo is stamped via ldflags at release time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// Dependencies carries everything the router needs. The caller owns the
// pool and service lifecycles.
type Dependencies struct {
	Config        config.Config
	Logger        zerolog.Logger
	Pool          *pgxpool.Pool
	Tokens        *auth.TokenManager
	Users         handlers.UserService
	Registrations handlers.RegistrationService
	Content       handlers.ContentService
	Build         BuildInfo
}

// NewRouter assembles the full handler chain. Public site forms and
// content reads stay open; everything else sits behind JWT auth, with
// admin-only mutations on top.
func NewRouter(deps Dependencies) http.Handler {
	env := deps.Config.Environment
	audits := audit.NewLogger(deps.Logger)

	authHandler := handlers.NewAuthHandler(deps.Users, env)
	teamHandler := handlers.NewTeamHandler(deps.Users, audits, env)
	passwordHandler := handlers.NewPasswordHandler(deps.Users, env)
	regsHandler := handlers.NewRegistrationsHandler(deps.Registrations, env)
	contentHandler := handlers.NewContentHandler(deps.Content, env)

	requireAuth := middleware.RequireAuth(deps.Tokens, env)
	requireAdmin := middleware.RequireAdmin(env)
	admin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(requireAdmin(h))
	}

	// The resource endpoints historically shipped open for the public
	// site; CRUD_REQUIRE_ADMIN tightens registration reads and content
	// mutations without touching the always-public form POSTs and reads.
	protectCRUD := deps.Config.Auth.ProtectCRUD

	jsonBody := middleware.RequestSize(middleware.DefaultMaxBodySize)
	uploadBody := middleware.RequestSize(middleware.UploadMaxBodySize)

	// One limiter store shared by all routes; the tier tag must be set
	// before the limiter runs, so limiting is applied per route rather
	// than around the mux. Authenticated admin traffic is not limited.
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)
	public := func(h http.Handler) http.Handler {
		return rateLimit(h)
	}
	loginTier := func(h http.Handler) http.Handler {
		return middleware.Tier(middleware.TierLogin)(rateLimit(h))
	}
	otpTier := func(h http.Handler) http.Handler {
		return middleware.Tier(middleware.TierOTP)(rateLimit(h))
	}
	crud := func(h http.HandlerFunc) http.Handler {
		if protectCRUD {
			return admin(h)
		}
		return public(h)
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.Pool))
	mux.Handle("/version", VersionHandler(deps.Build.Version, deps.Build.GitCommit, deps.Build.BuildDate))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/login/{$}", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(jsonBody(http.HandlerFunc(authHandler.Login))),
	}))
	mux.Handle("/api/create-admin/{$}", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(authHandler.CreateAdmin)),
	}))

	mux.Handle("/api/team/create/{$}", methodMux(map[string]http.Handler{
		http.MethodPost: admin(teamHandler.Create),
	}))
	mux.Handle("/api/team/list/{$}", methodMux(map[string]http.Handler{
		http.MethodGet: admin(teamHandler.List),
	}))
	mux.Handle("/api/team/delete/{id}/{$}", methodMux(map[string]http.Handler{
		http.MethodDelete: admin(teamHandler.Delete),
	}))

	mux.Handle("/api/password/send-otp/{$}", methodMux(map[string]http.Handler{
		http.MethodPost: otpTier(jsonBody(http.HandlerFunc(passwordHandler.SendOTP))),
	}))
	mux.Handle("/api/password/verify-otp/{$}", methodMux(map[string]http.Handler{
		http.MethodPost: otpTier(jsonBody(http.HandlerFunc(passwordHandler.VerifyOTP))),
	}))
	mux.Handle("/api/password/create/{$}", methodMux(map[string]http.Handler{
		http.MethodPost: otpTier(jsonBody(http.HandlerFunc(passwordHandler.Create))),
	}))

	// Form POSTs stay public always; the remaining registration
	// operations follow the CRUD policy.
	mux.Handle("/api/exhibitor-registrations/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:  crud(regsHandler.ListExhibitors),
		http.MethodPost: public(jsonBody(http.HandlerFunc(regsHandler.CreateExhibitor))),
	}))
	mux.Handle("/api/exhibitor-registrations/{id}/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:    crud(regsHandler.GetExhibitor),
		http.MethodPut:    crud(jsonBody(http.HandlerFunc(regsHandler.UpdateExhibitor)).ServeHTTP),
		http.MethodDelete: crud(regsHandler.DeleteExhibitor),
	}))
	mux.Handle("/api/visitor-registrations/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:  crud(regsHandler.ListVisitors),
		http.MethodPost: public(jsonBody(http.HandlerFunc(regsHandler.CreateVisitor))),
	}))
	mux.Handle("/api/visitor-registrations/{id}/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:    crud(regsHandler.GetVisitor),
		http.MethodPut:    crud(jsonBody(http.HandlerFunc(regsHandler.UpdateVisitor)).ServeHTTP),
		http.MethodDelete: crud(regsHandler.DeleteVisitor),
	}))

	// Content reads feed the public site and stay open; mutations follow
	// the CRUD policy.
	mux.Handle("/api/categories/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:  public(http.HandlerFunc(contentHandler.ListCategories)),
		http.MethodPost: crud(uploadBody(http.HandlerFunc(contentHandler.CreateCategory)).ServeHTTP),
	}))
	mux.Handle("/api/categories/{id}/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(http.HandlerFunc(contentHandler.GetCategory)),
		http.MethodPut:    crud(uploadBody(http.HandlerFunc(contentHandler.UpdateCategory)).ServeHTTP),
		http.MethodDelete: crud(contentHandler.DeleteCategory),
	}))
	mux.Handle("/api/events/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:  public(http.HandlerFunc(contentHandler.ListEvents)),
		http.MethodPost: crud(jsonBody(http.HandlerFunc(contentHandler.CreateEvent)).ServeHTTP),
	}))
	mux.Handle("/api/events/{id}/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(http.HandlerFunc(contentHandler.GetEvent)),
		http.MethodPut:    crud(jsonBody(http.HandlerFunc(contentHandler.UpdateEvent)).ServeHTTP),
		http.MethodDelete: crud(contentHandler.DeleteEvent),
	}))
	mux.Handle("/api/gallery/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:  public(http.HandlerFunc(contentHandler.ListGallery)),
		http.MethodPost: crud(uploadBody(http.HandlerFunc(contentHandler.CreateGalleryImage)).ServeHTTP),
	}))
	mux.Handle("/api/gallery/{id}/{$}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(http.HandlerFunc(contentHandler.GetGalleryImage)),
		http.MethodPut:    crud(uploadBody(http.HandlerFunc(contentHandler.UpdateGalleryImage)).ServeHTTP),
		http.MethodDelete: crud(contentHandler.DeleteGalleryImage),
	}))

	var handler http.Handler = mux
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
