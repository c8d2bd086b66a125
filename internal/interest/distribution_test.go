package interest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stokvelhub/internal/member"
)

func poolOf(year int, fines, bank int64) *Pool {
	return &Pool{
		Year:         year,
		TotalFines:   decimal.NewFromInt(fines),
		BankInterest: decimal.NewFromInt(bank),
	}
}

func activeMember(savings int64) *member.Member {
	return &member.Member{
		ID:           uuid.New(),
		Status:       member.StatusActive,
		TotalSavings: decimal.NewFromInt(savings),
	}
}

func TestBuildDistributionSplitsEvenly(t *testing.T) {
	threshold := decimal.NewFromInt(10000)
	members := []*member.Member{
		activeMember(12000),
		activeMember(10000), // meets threshold exactly
		activeMember(9999),  // misses it
	}

	plan := BuildDistribution(poolOf(2025, 900, 100), members, threshold)

	assert.Equal(t, 2, plan.QualifyingCount)
	assert.True(t, plan.PerMemberShare.Equal(decimal.NewFromInt(500)), plan.PerMemberShare.String())
	require.Len(t, plan.Members, 2)
	for _, share := range plan.Members {
		assert.True(t, share.Share.Equal(plan.PerMemberShare))
	}
}

func TestBuildDistributionFloorsOddSplit(t *testing.T) {
	plan := BuildDistribution(poolOf(2025, 1000, 0), []*member.Member{
		activeMember(10000),
		activeMember(10000),
		activeMember(10000),
	}, decimal.NewFromInt(10000))

	// 1000 / 3 floors to 333.
	assert.True(t, plan.PerMemberShare.Equal(decimal.NewFromInt(333)), plan.PerMemberShare.String())
}

func TestBuildDistributionNoQualifyingMembers(t *testing.T) {
	suspended := activeMember(20000)
	suspended.Status = member.StatusSuspended

	plan := BuildDistribution(poolOf(2025, 500, 0), []*member.Member{
		suspended,
		activeMember(100),
	}, decimal.NewFromInt(10000))

	assert.Zero(t, plan.QualifyingCount)
	assert.True(t, plan.PerMemberShare.IsZero())
	assert.Empty(t, plan.Members)
}

func TestYearFromPeriod(t *testing.T) {
	assert.Equal(t, 2025, YearFromPeriod("January 2025", 2030))
	assert.Equal(t, 2024, YearFromPeriod("Dec 2024 catchup", 2030))
	assert.Equal(t, 2030, YearFromPeriod("January", 2030))
	assert.Equal(t, 2030, YearFromPeriod("", 2030))
}
