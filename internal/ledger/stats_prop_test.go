package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"stokvelhub/internal/submission"
)

// The recalculation fold must reproduce what the incremental approve/reject
// deltas would have produced for any history: savings equal the sum over
// verified submissions, and the status counts partition the total.
func TestRecomputeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		memberID := uuid.New()
		threshold := decimal.NewFromInt(rapid.Int64Range(0, 100000).Draw(t, "threshold"))

		n := rapid.IntRange(0, 50).Draw(t, "count")
		subs := make([]*submission.Submission, 0, n)

		wantSavings := decimal.Zero
		wantFines := decimal.Zero
		statusCounts := map[string]int{}

		for i := 0; i < n; i++ {
			status := rapid.SampledFrom([]string{
				submission.StatusPending,
				submission.StatusVerified,
				submission.StatusRejected,
			}).Draw(t, "status")
			amount := decimal.NewFromInt(rapid.Int64Range(1, 5000).Draw(t, "amount"))
			fine := decimal.NewFromInt(rapid.Int64Range(0, 100).Draw(t, "fine"))

			subs = append(subs, &submission.Submission{
				ID:         uuid.New(),
				Status:     status,
				Amount:     amount,
				FineAmount: fine,
			})
			statusCounts[status]++
			if status == submission.StatusVerified {
				wantSavings = wantSavings.Add(amount)
				wantFines = wantFines.Add(fine)
			}
		}

		stats := Recompute(memberID, subs, threshold)

		if !stats.TotalSavings.Equal(wantSavings) {
			t.Fatalf("total savings %s, want %s", stats.TotalSavings, wantSavings)
		}
		if !stats.TotalFines.Equal(wantFines) {
			t.Fatalf("total fines %s, want %s", stats.TotalFines, wantFines)
		}
		if stats.SubmissionCount != stats.VerifiedCount+stats.PendingCount+stats.RejectedCount {
			t.Fatalf("count partition broken: %d != %d+%d+%d",
				stats.SubmissionCount, stats.VerifiedCount, stats.PendingCount, stats.RejectedCount)
		}
		if stats.VerifiedCount != statusCounts[submission.StatusVerified] ||
			stats.PendingCount != statusCounts[submission.StatusPending] ||
			stats.RejectedCount != statusCounts[submission.StatusRejected] {
			t.Fatalf("status counts drifted")
		}
		if stats.QualifiesForInterest != wantSavings.GreaterThanOrEqual(threshold) {
			t.Fatalf("eligibility %v inconsistent with savings %s and threshold %s",
				stats.QualifiesForInterest, wantSavings, threshold)
		}
	})
}
