// internal/otp/domain.go
package otp

import (
	"errors"
	"time"
)

const (
	// CodeLength is the number of digits in a reset code.
	CodeLength = 6
	// TTL is how long an issued code stays valid.
	TTL = 10 * time.Minute
	// MaxAttempts is how many wrong guesses burn a code.
	MaxAttempts = 3
)

var (
	ErrNoCode    = errors.New("no reset code outstanding for this phone")
	ErrExpired   = errors.New("reset code expired")
	ErrExhausted = errors.New("reset code attempts exhausted")
	ErrMismatch  = errors.New("reset code does not match")
	ErrCodeUsed  = errors.New("reset code already used")
)

// Record is the single outstanding reset code for a phone. Issuing a new
// code overwrites it.
type Record struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	Used      bool      `json:"used"`
	UsedAt    time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
