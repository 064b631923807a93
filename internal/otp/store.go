// Package otp holds short-lived one-time-code challenges keyed by email.
// A challenge is overwritten by a newer one for the same email and is only
// consumed when password creation succeeds, not on verification.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Challenge is a pending one-time code for an email address. Validity is
// computed from CreatedAt at read time by the caller.
type Challenge struct {
	Code      string
	CreatedAt time.Time
}

var ErrNotFound = errors.New("otp challenge not found")

// Store is an expiring keyed challenge store. The default implementation is
// process-local; a redis-backed one is available for multi-instance
// deployments.
type Store interface {
	Set(ctx context.Context, email string, challenge Challenge) error
	Get(ctx context.Context, email string) (Challenge, error)
	Delete(ctx context.Context, email string) error
}

// GenerateCode returns a 6-digit numeric code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
