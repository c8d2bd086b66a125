// internal/interest/distribution.go
package interest

import (
	"github.com/shopspring/decimal"

	"stokvelhub/internal/member"
)

// BuildDistribution plans a year's payout: every active member whose savings
// meet the threshold gets an identical floor-divided share of the pool. With
// no qualifying members the share is zero; there is never a divide by zero.
func BuildDistribution(pool *Pool, members []*member.Member, threshold decimal.Decimal) *DistributionPlan {
	plan := &DistributionPlan{
		Year:           pool.Year,
		PoolTotal:      pool.TotalFines.Add(pool.BankInterest),
		PerMemberShare: decimal.Zero,
	}

	var qualifying []*member.Member
	for _, m := range members {
		if m.Status == member.StatusActive && m.TotalSavings.GreaterThanOrEqual(threshold) {
			qualifying = append(qualifying, m)
		}
	}
	plan.QualifyingCount = len(qualifying)
	if plan.QualifyingCount == 0 {
		return plan
	}

	plan.PerMemberShare = plan.PoolTotal.
		Div(decimal.NewFromInt(int64(plan.QualifyingCount))).
		Floor()

	for _, m := range qualifying {
		plan.Members = append(plan.Members, MemberShare{
			MemberID:  m.ID,
			Reference: m.Reference,
			FullName:  m.FullName,
			Share:     plan.PerMemberShare,
		})
	}
	return plan
}
