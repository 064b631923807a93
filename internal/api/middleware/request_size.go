package middleware

import "net/http"

const (
	// DefaultMaxBodySize bounds JSON request bodies.
	DefaultMaxBodySize int64 = 1 << 20 // 1 MiB

	// UploadMaxBodySize bounds multipart image uploads.
	UploadMaxBodySize int64 = 12 << 20 // 12 MiB
)

// RequestSize caps request body size; oversized bodies fail the first read
// with http.MaxBytesError, surfacing as 413 from the JSON helpers.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
