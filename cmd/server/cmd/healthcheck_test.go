package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheck_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	healthcheckURL = server.URL + "/healthz"
	defer func() { healthcheckURL = "" }()

	require.NoError(t, runHealthcheck(healthcheckCmd, nil))
}

func TestHealthcheck_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	healthcheckURL = server.URL + "/healthz"
	defer func() { healthcheckURL = "" }()

	err := runHealthcheck(healthcheckCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHealthcheck_Unreachable(t *testing.T) {
	healthcheckURL = "http://127.0.0.1:1/healthz"
	defer func() { healthcheckURL = "" }()

	require.Error(t, runHealthcheck(healthcheckCmd, nil))
}
