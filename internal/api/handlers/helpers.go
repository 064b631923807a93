// Package handlers contains the HTTP handlers for the public site forms,
// the admin panel, and the invite/password-setup workflow.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/expotrade/server/internal/api/problem"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses the request body into dst and writes the problem
// response itself on failure, returning false.
func decodeJSON(w http.ResponseWriter, r *http.Request, env string, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Request body too large", err, env)
		return false
	}

	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid JSON body", err, env)
	return false
}

func pathID(r *http.Request) string {
	return r.PathValue("id")
}
