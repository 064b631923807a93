// Package problem writes RFC 7807 problem+json error responses.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs used across the API.
const (
	TypeValidation   = "https://expotrade.events/problems/validation-error"
	TypeUnauthorized = "https://expotrade.events/problems/unauthorized"
	TypeForbidden    = "https://expotrade.events/problems/forbidden"
	TypeNotFound     = "https://expotrade.events/problems/not-found"
	TypeConflict     = "https://expotrade.events/problems/conflict"
	TypeExpired      = "https://expotrade.events/problems/expired"
	TypeServerError  = "https://expotrade.events/problems/server-error"
)

// Sentinel errors for failures that originate in middleware rather than
// a service call.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) { p.Detail = detail }
}

// WithErrors attaches per-field validation errors.
func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) { p.Errors = errs }
}

// Write sends a problem+json response and logs the underlying error.
// Outside development and test the raw error text is replaced with the
// generic status text so internals never leak to clients.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	p := ProblemDetails{Type: typ, Title: title, Status: status}
	for _, opt := range opts {
		opt(&p)
	}

	if p.Detail == "" && err != nil {
		switch env {
		case "development", "test":
			p.Detail = err.Error()
		default:
			p.Detail = http.StatusText(status)
		}
	}
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		evt := logger.Warn()
		if status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Err(err).
			Int("status", status).
			Str("type", typ).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(title)
	}

	w.Header().Set("Content-Type", contentType)

	payload, marshalErr := json.Marshal(p)
	if marshalErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Internal Server Error","status":500}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
