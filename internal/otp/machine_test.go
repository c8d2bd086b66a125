package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateOrdering(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	fresh := func() *Record {
		return &Record{Phone: "27821234567", Code: "123456", ExpiresAt: now.Add(TTL)}
	}

	assert.Equal(t, OutcomeMatch, Evaluate(fresh(), "123456", now))
	assert.Equal(t, OutcomeMismatch, Evaluate(fresh(), "654321", now))

	expired := fresh()
	expired.ExpiresAt = now.Add(-time.Second)
	// Expiry wins even when the code would have matched.
	assert.Equal(t, OutcomeExpired, Evaluate(expired, "123456", now))

	exhausted := fresh()
	exhausted.Attempts = MaxAttempts
	assert.Equal(t, OutcomeExhausted, Evaluate(exhausted, "123456", now))

	used := fresh()
	used.Used = true
	// Used beats everything, including expiry.
	used.ExpiresAt = now.Add(-time.Hour)
	assert.Equal(t, OutcomeUsed, Evaluate(used, "123456", now))
}
