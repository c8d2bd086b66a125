// internal/otp/machine.go
package otp

import "time"

// Outcome is the state-machine verdict for one verification attempt.
type Outcome int

const (
	OutcomeMatch Outcome = iota
	OutcomeMismatch
	OutcomeExpired
	OutcomeExhausted
	OutcomeUsed
)

// Evaluate runs the verification rules against a record without touching any
// store. Checks run in order: a used code never verifies again, an expired or
// exhausted record is burned regardless of the supplied code, and only then
// is the code compared.
func Evaluate(rec *Record, code string, now time.Time) Outcome {
	switch {
	case rec.Used:
		return OutcomeUsed
	case now.After(rec.ExpiresAt):
		return OutcomeExpired
	case rec.Attempts >= MaxAttempts:
		return OutcomeExhausted
	case rec.Code != code:
		return OutcomeMismatch
	default:
		return OutcomeMatch
	}
}
