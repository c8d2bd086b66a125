package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stokvelhub/internal/submission"
)

func sub(status string, amount, fine int64) *submission.Submission {
	return &submission.Submission{
		ID:         uuid.New(),
		Status:     status,
		Amount:     decimal.NewFromInt(amount),
		FineAmount: decimal.NewFromInt(fine),
	}
}

func TestRecomputeSumsVerifiedOnly(t *testing.T) {
	memberID := uuid.New()
	threshold := decimal.NewFromInt(10000)

	stats := Recompute(memberID, []*submission.Submission{
		sub(submission.StatusVerified, 500, 50),
		sub(submission.StatusVerified, 300, 0),
		sub(submission.StatusPending, 700, 0),
		sub(submission.StatusRejected, 400, 50),
	}, threshold)

	assert.True(t, stats.TotalSavings.Equal(decimal.NewFromInt(800)), stats.TotalSavings.String())
	assert.True(t, stats.TotalFines.Equal(decimal.NewFromInt(50)), stats.TotalFines.String())
	assert.Equal(t, 4, stats.SubmissionCount)
	assert.Equal(t, 2, stats.VerifiedCount)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 1, stats.RejectedCount)
	assert.False(t, stats.QualifiesForInterest)
}

func TestRecomputeCountsPartition(t *testing.T) {
	stats := Recompute(uuid.New(), []*submission.Submission{
		sub(submission.StatusVerified, 100, 0),
		sub(submission.StatusPending, 100, 0),
		sub(submission.StatusPending, 100, 0),
		sub(submission.StatusRejected, 100, 0),
	}, decimal.NewFromInt(10000))

	assert.Equal(t, stats.SubmissionCount,
		stats.VerifiedCount+stats.PendingCount+stats.RejectedCount)
}

func TestRecomputeQualifiesAtThreshold(t *testing.T) {
	threshold := decimal.NewFromInt(10000)

	below := Recompute(uuid.New(), []*submission.Submission{
		sub(submission.StatusVerified, 9800, 0),
	}, threshold)
	assert.False(t, below.QualifiesForInterest)

	// 9800 + 300 crosses the 10000 threshold within one approval.
	at := Recompute(uuid.New(), []*submission.Submission{
		sub(submission.StatusVerified, 9800, 0),
		sub(submission.StatusVerified, 300, 0),
	}, threshold)
	assert.True(t, at.TotalSavings.Equal(decimal.NewFromInt(10100)))
	assert.True(t, at.QualifiesForInterest)
}

func TestRecomputeEmptyHistory(t *testing.T) {
	stats := Recompute(uuid.New(), nil, decimal.NewFromInt(10000))

	assert.True(t, stats.TotalSavings.IsZero())
	assert.True(t, stats.TotalFines.IsZero())
	assert.Zero(t, stats.SubmissionCount)
	assert.False(t, stats.QualifiesForInterest)
}

func TestRecomputeIdempotent(t *testing.T) {
	subs := []*submission.Submission{
		sub(submission.StatusVerified, 1200, 50),
		sub(submission.StatusPending, 800, 0),
	}
	memberID := uuid.New()
	threshold := decimal.NewFromInt(1000)

	first := Recompute(memberID, subs, threshold)
	second := Recompute(memberID, subs, threshold)

	assert.Equal(t, first, second)
}
