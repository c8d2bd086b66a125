// internal/interest/domain.go
package interest

import (
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pool accumulates a year's collected late fines plus manually captured bank
// interest. Pools are created lazily on the first fine routed to a year and
// never deleted.
type Pool struct {
	Year         int             `json:"year"`
	TotalFines   decimal.Decimal `json:"total_fines"`
	BankInterest decimal.Decimal `json:"bank_interest"`
}

// DistributionPlan enumerates the qualifying members and the identical share
// each would receive. Planning only; nothing is disbursed or mutated.
type DistributionPlan struct {
	Year            int             `json:"year"`
	PoolTotal       decimal.Decimal `json:"pool_total"`
	QualifyingCount int             `json:"qualifying_count"`
	PerMemberShare  decimal.Decimal `json:"per_member_share"`
	Members         []MemberShare   `json:"members"`
}

// MemberShare is one qualifying member's slice of the plan.
type MemberShare struct {
	MemberID  uuid.UUID       `json:"member_id"`
	Reference string          `json:"reference"`
	FullName  string          `json:"full_name"`
	Share     decimal.Decimal `json:"share"`
}

var yearPattern = regexp.MustCompile(`\b\d{4}\b`)

// YearFromPeriod extracts the 4-digit year from a payment-period label like
// "January 2025". Fines are bucketed by the period's year, not the year the
// approval happens. When the label carries no year the fallback (the current
// calendar year at the call site) is used.
func YearFromPeriod(period string, fallback int) int {
	match := yearPattern.FindString(period)
	if match == "" {
		return fallback
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return fallback
	}
	return year
}
