// internal/ledger/stats.go
package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stokvelhub/internal/submission"
)

// Recompute folds a member's full submission history into fresh aggregates.
// Only verified submissions move money; every submission moves a counter.
// This is the ground truth the recalculate operation restores, so it must
// agree with what the incremental approve/reject deltas produce.
func Recompute(memberID uuid.UUID, subs []*submission.Submission, threshold decimal.Decimal) *RecalculatedStats {
	stats := &RecalculatedStats{
		MemberID:     memberID,
		TotalSavings: decimal.Zero,
		TotalFines:   decimal.Zero,
	}

	for _, sub := range subs {
		stats.SubmissionCount++
		switch sub.Status {
		case submission.StatusVerified:
			stats.VerifiedCount++
			stats.TotalSavings = stats.TotalSavings.Add(sub.Amount)
			stats.TotalFines = stats.TotalFines.Add(sub.FineAmount)
		case submission.StatusPending:
			stats.PendingCount++
		case submission.StatusRejected:
			stats.RejectedCount++
		}
	}

	stats.QualifiesForInterest = stats.TotalSavings.GreaterThanOrEqual(threshold)
	return stats
}
