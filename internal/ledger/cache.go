// internal/ledger/cache.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cache is the denormalized fast-read projection of per-member and global
// totals. It exists for read latency, not correctness: every mirror write is
// best-effort, and recalculation overwrites it from ground truth.
type Cache struct {
	db *sql.DB
}

func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// MemberStats is the cached per-member row.
type MemberStats struct {
	MemberID             uuid.UUID       `json:"member_id"`
	Reference            string          `json:"reference"`
	TotalSavings         decimal.Decimal `json:"total_savings"`
	TotalFines           decimal.Decimal `json:"total_fines"`
	SubmissionCount      int             `json:"submission_count"`
	VerifiedCount        int             `json:"verified_count"`
	PendingCount         int             `json:"pending_count"`
	RejectedCount        int             `json:"rejected_count"`
	QualifiesForInterest bool            `json:"qualifies_for_interest"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// UpsertMember overwrites a member's cached row with freshly computed values.
func (c *Cache) UpsertMember(ctx context.Context, stats MemberStats) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO member_stats (
			member_id, reference, total_savings, total_fines,
			submission_count, verified_count, pending_count, rejected_count,
			qualifies_for_interest, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (member_id) DO UPDATE
		SET reference = EXCLUDED.reference,
		    total_savings = EXCLUDED.total_savings,
		    total_fines = EXCLUDED.total_fines,
		    submission_count = EXCLUDED.submission_count,
		    verified_count = EXCLUDED.verified_count,
		    pending_count = EXCLUDED.pending_count,
		    rejected_count = EXCLUDED.rejected_count,
		    qualifies_for_interest = EXCLUDED.qualifies_for_interest,
		    updated_at = NOW()
	`,
		stats.MemberID, stats.Reference, stats.TotalSavings, stats.TotalFines,
		stats.SubmissionCount, stats.VerifiedCount, stats.PendingCount, stats.RejectedCount,
		stats.QualifiesForInterest,
	)
	if err != nil {
		return fmt.Errorf("upsert member stats: %w", err)
	}
	return nil
}

// GetMember reads a member's cached row.
func (c *Cache) GetMember(ctx context.Context, memberID uuid.UUID) (*MemberStats, error) {
	stats := &MemberStats{MemberID: memberID}
	err := c.db.QueryRowContext(ctx, `
		SELECT reference, total_savings, total_fines,
		       submission_count, verified_count, pending_count, rejected_count,
		       qualifies_for_interest, updated_at
		FROM member_stats
		WHERE member_id = $1
	`, memberID).Scan(
		&stats.Reference, &stats.TotalSavings, &stats.TotalFines,
		&stats.SubmissionCount, &stats.VerifiedCount, &stats.PendingCount, &stats.RejectedCount,
		&stats.QualifiesForInterest, &stats.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("query member stats: %w", err)
	}
	return stats, nil
}

// GlobalDeltas are atomic increments applied to the club-wide counters.
type GlobalDeltas struct {
	Savings     decimal.Decimal
	Fines       decimal.Decimal
	Submissions int
	Verified    int
	Pending     int
	Rejected    int
}

// ApplyGlobalDeltas increments the global counters in place. Each numeric
// mutation is a single atomic UPDATE, never read-modify-write.
func (c *Cache) ApplyGlobalDeltas(ctx context.Context, d GlobalDeltas) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO global_stats (id, total_savings, total_fines, submission_count, verified_count, pending_count, rejected_count, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET total_savings = global_stats.total_savings + EXCLUDED.total_savings,
		    total_fines = global_stats.total_fines + EXCLUDED.total_fines,
		    submission_count = global_stats.submission_count + EXCLUDED.submission_count,
		    verified_count = global_stats.verified_count + EXCLUDED.verified_count,
		    pending_count = GREATEST(global_stats.pending_count + EXCLUDED.pending_count, 0),
		    rejected_count = global_stats.rejected_count + EXCLUDED.rejected_count,
		    updated_at = NOW()
	`, d.Savings, d.Fines, d.Submissions, d.Verified, d.Pending, d.Rejected)
	if err != nil {
		return fmt.Errorf("apply global deltas: %w", err)
	}
	return nil
}

// RefreshGlobal rebuilds the global counters from the authoritative member
// rows. Recalculation uses this as the reconciliation step.
func (c *Cache) RefreshGlobal(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO global_stats (id, total_savings, total_fines, submission_count, verified_count, pending_count, rejected_count, updated_at)
		SELECT 1,
		       COALESCE(SUM(total_savings), 0),
		       COALESCE(SUM(total_fines), 0),
		       COALESCE(SUM(submission_count), 0),
		       COALESCE(SUM(verified_count), 0),
		       COALESCE(SUM(pending_count), 0),
		       COALESCE(SUM(rejected_count), 0),
		       NOW()
		FROM members
		ON CONFLICT (id) DO UPDATE
		SET total_savings = EXCLUDED.total_savings,
		    total_fines = EXCLUDED.total_fines,
		    submission_count = EXCLUDED.submission_count,
		    verified_count = EXCLUDED.verified_count,
		    pending_count = EXCLUDED.pending_count,
		    rejected_count = EXCLUDED.rejected_count,
		    updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("refresh global stats: %w", err)
	}
	return nil
}

// Global reads the club-wide counters, zero-valued before any write. The
// member count is a live count over the authoritative rows: registration
// never writes the cache, so the cached row cannot carry it.
func (c *Cache) Global(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{TotalSavings: decimal.Zero, TotalFines: decimal.Zero}
	err := c.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM members),
		       COALESCE(g.total_savings, 0),
		       COALESCE(g.total_fines, 0),
		       COALESCE(g.submission_count, 0),
		       COALESCE(g.verified_count, 0),
		       COALESCE(g.pending_count, 0),
		       COALESCE(g.rejected_count, 0)
		FROM (VALUES (1)) AS seed (id)
		LEFT JOIN global_stats g ON g.id = seed.id
	`).Scan(
		&stats.MemberCount, &stats.TotalSavings, &stats.TotalFines,
		&stats.SubmissionCount, &stats.VerifiedCount, &stats.PendingCount, &stats.RejectedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("query global stats: %w", err)
	}
	return stats, nil
}
