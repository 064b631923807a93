package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/expotrade/server/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit_AllowsWithinLimit(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 5}
	handler := RateLimit(cfg)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 1}
	handler := RateLimit(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Other clients are unaffected by the first client's exhaustion.
	req = httptest.NewRequest(http.MethodGet, "/api/events/", nil)
	req.RemoteAddr = "192.0.2.2:1000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_TierSeparation(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 100, LoginPerMinute: 1}
	limited := RateLimit(cfg)
	loginHandler := Tier(TierLogin)(limited(okHandler()))
	publicHandler := limited(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/login/", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	loginHandler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	loginHandler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "second login throttled")

	rec = httptest.NewRecorder()
	publicHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "public tier unaffected")
}

func TestRateLimit_HealthExempt(t *testing.T) {
	cfg := config.RateLimitConfig{PublicPerMinute: 1}
	handler := RateLimit(cfg)(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_ZeroLimitIsUnlimited(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{})(okHandler())

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientKey_IgnoresSpoofedForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:4000"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	// Peer is not a trusted proxy, so the header is ignored.
	assert.Equal(t, "203.0.113.5", clientKey(req, nil))

	// With the peer's network trusted, the forwarded address is used.
	assert.Equal(t, "10.0.0.1", clientKey(req, []string{"203.0.113.0/24"}))
}
