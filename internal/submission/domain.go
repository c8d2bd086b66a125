// internal/submission/domain.go
package submission

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

var (
	ErrNotFound         = errors.New("submission not found")
	ErrAlreadyProcessed = errors.New("submission already processed")
)

// Submission is one proof-of-payment record. Late/fine facts are computed at
// creation from the club rules in force at that moment and frozen; later
// config changes never touch existing rows. The member link is resolved by
// phone at submit time and does not follow later phone changes.
type Submission struct {
	ID             uuid.UUID     `json:"id"`
	Reference      string        `json:"reference"`
	MemberID       uuid.NullUUID `json:"member_id,omitempty"`
	SubmitterName  string        `json:"submitter_name"`
	SubmitterPhone string        `json:"submitter_phone"`

	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentPeriod string          `json:"payment_period"` // e.g. "January 2025"
	PaymentMethod string          `json:"payment_method"`
	ProofRef      string          `json:"proof_ref,omitempty"`
	Notes         string          `json:"notes,omitempty"`

	IsLate     bool            `json:"is_late"`
	FineAmount decimal.Decimal `json:"fine_amount"`

	Status          string    `json:"status"`
	ApprovedBy      string    `json:"approved_by,omitempty"`
	ApprovedAt      time.Time `json:"approved_at,omitempty"`
	RejectedBy      string    `json:"rejected_by,omitempty"`
	RejectedAt      time.Time `json:"rejected_at,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
