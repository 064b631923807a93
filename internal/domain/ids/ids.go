// Package ids mints and validates the ULID identifiers used for public
// records (registrations, categories, events, gallery images).
package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidULID = errors.New("invalid ULID")

// Crockford Base32, 26 characters.
var ulidPattern = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

// Shared monotonic entropy so IDs minted within the same millisecond
// still sort in creation order. ulid.MonotonicReader is not safe for
// concurrent use, hence the lock.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID mints a ULID string for the current time. Entropy comes from
// crypto/rand; a failure there means the process cannot do anything
// useful anyway, so this panics instead of returning an error.
func NewULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// IsULID reports whether value parses as a ULID. Leading and trailing
// whitespace is ignored.
func IsULID(value string) bool {
	return ulidPattern.MatchString(strings.TrimSpace(value))
}

func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}
