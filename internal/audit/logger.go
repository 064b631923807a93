// Package audit records admin actions (invites, deletions, content
// changes) as structured log entries for after-the-fact review.
package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is a single audit record.
type Entry struct {
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Success      bool
	Detail       string
}

type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

func (l *Logger) Record(entry Entry) {
	event := l.logger.Info()
	if !entry.Success {
		event = l.logger.Warn()
	}

	event.
		Time("at", time.Now().UTC()).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress).
		Bool("success", entry.Success).
		Str("detail", entry.Detail).
		Msg("audit")
}

// FromRequest fills actor and IP from the request and records the entry.
func (l *Logger) FromRequest(r *http.Request, actor string, entry Entry) {
	entry.Actor = actor
	entry.IPAddress = ClientIP(r)
	l.Record(entry)
}

// ClientIP returns the best-effort client address. Proxy headers are taken
// as-is; rate limiting does its own stricter trusted-proxy check.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
