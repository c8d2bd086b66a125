// internal/ledger/domain.go
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("submission amount must be positive")

// SubmitInput is a proof-of-payment as handed in by a member or guest.
type SubmitInput struct {
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentPeriod string          `json:"payment_period"`
	PaymentMethod string          `json:"payment_method"`
	ProofRef      string          `json:"proof_ref"`
	Notes         string          `json:"notes"`
}

// SubmitResult is returned once the submission and counter updates are
// durable. BelowMinimum is advisory only; it never blocks the submission.
type SubmitResult struct {
	Reference    string          `json:"reference"`
	IsLate       bool            `json:"is_late"`
	FineAmount   decimal.Decimal `json:"fine_amount"`
	BelowMinimum bool            `json:"below_minimum"`
	MemberLinked bool            `json:"member_linked"`
}

// RecalculatedStats is a member's financial state re-derived from the full
// set of that member's submission records.
type RecalculatedStats struct {
	MemberID             uuid.UUID       `json:"member_id"`
	TotalSavings         decimal.Decimal `json:"total_savings"`
	TotalFines           decimal.Decimal `json:"total_fines"`
	SubmissionCount      int             `json:"submission_count"`
	VerifiedCount        int             `json:"verified_count"`
	PendingCount         int             `json:"pending_count"`
	RejectedCount        int             `json:"rejected_count"`
	QualifiesForInterest bool            `json:"qualifies_for_interest"`
}

// DashboardStats are the club-wide totals shown on the admin dashboard.
type DashboardStats struct {
	MemberCount     int             `json:"member_count"`
	TotalSavings    decimal.Decimal `json:"total_savings"`
	TotalFines      decimal.Decimal `json:"total_fines"`
	SubmissionCount int             `json:"submission_count"`
	VerifiedCount   int             `json:"verified_count"`
	PendingCount    int             `json:"pending_count"`
	RejectedCount   int             `json:"rejected_count"`
}
