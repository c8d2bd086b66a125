// internal/member/domain.go
package member

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

var (
	ErrNotFound           = errors.New("member not found")
	ErrPhoneInUse         = errors.New("phone number already registered")
	ErrIDNumberInUse      = errors.New("national ID already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Member is the authoritative record for a club registrant. The aggregate
// fields are derived and mutated only by the ledger engine; everything else
// is identity captured at registration.
type Member struct {
	ID          uuid.UUID `json:"id"`
	Reference   string    `json:"reference"`
	FullName    string    `json:"full_name"`
	Surname     string    `json:"surname"`
	DateOfBirth time.Time `json:"date_of_birth"`
	IDNumber    string    `json:"id_number"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`

	Status        string `json:"status"`
	SkippedMonths int    `json:"skipped_months"`

	TotalSavings         decimal.Decimal `json:"total_savings"`
	TotalFines           decimal.Decimal `json:"total_fines"`
	SubmissionCount      int             `json:"submission_count"`
	VerifiedCount        int             `json:"verified_count"`
	PendingCount         int             `json:"pending_count"`
	RejectedCount        int             `json:"rejected_count"`
	QualifiesForInterest bool            `json:"qualifies_for_interest"`
	LastPaymentDate      time.Time       `json:"last_payment_date,omitempty"`
	LastPaymentMonth     string          `json:"last_payment_month,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential holds a member's login secret, stored apart from the member row.
type Credential struct {
	MemberID     uuid.UUID `json:"member_id"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
}

// ProfileUpdate patches mutable identity fields; nil means leave unchanged.
type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Surname  *string `json:"surname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// RegisterInput carries everything needed to enroll a new member.
type RegisterInput struct {
	FullName string `json:"full_name"`
	Surname  string `json:"surname"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
