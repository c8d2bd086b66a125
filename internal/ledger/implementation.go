// internal/ledger/implementation.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stokvelhub/internal/audit"
	"stokvelhub/internal/config"
	"stokvelhub/internal/interest"
	"stokvelhub/internal/member"
	"stokvelhub/internal/notify"
	"stokvelhub/internal/phone"
	"stokvelhub/internal/reference"
	"stokvelhub/internal/submission"
)

// engine implements the Engine interface. Every transition runs the
// authoritative writes (submission status + member aggregates + interest
// pool) inside one transaction guarded by a compare-and-set on the pending
// status; the aggregate cache is mirrored afterwards with the same computed
// values, best-effort, and recalculation repairs any drift.
type engine struct {
	db         *sql.DB
	members    *member.Store
	subs       *submission.Store
	pools      *interest.Store
	cache      *Cache
	refs       reference.Generator
	cfg        *config.Config
	auditLog   *audit.Log
	dispatcher *notify.Dispatcher
	tracer     trace.Tracer
}

// NewEngine creates the ledger consistency engine.
func NewEngine(db *sql.DB, members *member.Store, subs *submission.Store, pools *interest.Store, cache *Cache, refs reference.Generator, cfg *config.Config, auditLog *audit.Log, dispatcher *notify.Dispatcher) Engine {
	return &engine{
		db:         db,
		members:    members,
		subs:       subs,
		pools:      pools,
		cache:      cache,
		refs:       refs,
		cfg:        cfg,
		auditLog:   auditLog,
		dispatcher: dispatcher,
		tracer:     otel.Tracer("stokvelhub/ledger"),
	}
}

// Submit records a new pending proof of payment and, when the phone resolves
// to a member, moves that member's submission counters.
func (e *engine) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	ctx, span := e.tracer.Start(ctx, "ledger.submit")
	defer span.End()

	normalized, err := phone.Normalize(input.Phone)
	if err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Best-effort member link; a miss means a guest submission, never a failure.
	var memberID uuid.NullUUID
	if m, err := e.members.GetByPhone(ctx, normalized); err == nil {
		memberID = uuid.NullUUID{UUID: m.ID, Valid: true}
	} else if err != member.ErrNotFound {
		return nil, err
	}

	isLate, fine := submission.AssessLateFee(input.PaymentDate, e.cfg.DeadlineDay, e.cfg.LateFee)

	ref, err := e.refs.Next(ctx)
	if err != nil {
		return nil, err
	}

	sub := &submission.Submission{
		ID:             uuid.New(),
		Reference:      ref,
		MemberID:       memberID,
		SubmitterName:  input.Name,
		SubmitterPhone: normalized,
		Amount:         input.Amount,
		PaymentDate:    input.PaymentDate,
		PaymentPeriod:  input.PaymentPeriod,
		PaymentMethod:  input.PaymentMethod,
		ProofRef:       input.ProofRef,
		Notes:          input.Notes,
		IsLate:         isLate,
		FineAmount:     fine,
		Status:         submission.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := e.subs.Create(ctx, tx, sub); err != nil {
		return nil, err
	}

	var mirror *MemberStats
	if memberID.Valid {
		mirror, _, err = applyMemberDeltas(ctx, tx, memberID.UUID, memberDeltas{
			submissions: 1,
			pending:     1,
		}, e.cfg.InterestThreshold)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(
		attribute.String("submission.reference", ref),
		attribute.Bool("submission.late", isLate),
		attribute.Bool("submission.member_linked", memberID.Valid),
	)

	if mirror != nil {
		e.mirror(ctx, *mirror, GlobalDeltas{Submissions: 1, Pending: 1})
	}

	e.auditLog.Record(ctx, input.Name, "submission_created", "submission", sub.ID.String(), map[string]interface{}{
		"reference": ref,
		"amount":    input.Amount.String(),
		"is_late":   isLate,
	})
	e.dispatcher.Dispatch(notify.Message{
		Kind:  notify.KindSubmissionReceived,
		Phone: normalized,
		Payload: map[string]string{
			"reference": ref,
			"amount":    input.Amount.StringFixed(2),
		},
	})

	return &SubmitResult{
		Reference:    ref,
		IsLate:       isLate,
		FineAmount:   fine,
		BelowMinimum: input.Amount.LessThan(e.cfg.MinimumDeposit),
		MemberLinked: memberID.Valid,
	}, nil
}

// Approve flips a pending submission to verified and moves the linked
// member's money and counters in the same transaction. Of two racing
// approvals exactly one commits; the loser sees ErrAlreadyProcessed and
// nothing else happens.
func (e *engine) Approve(ctx context.Context, submissionID uuid.UUID, approvedBy string) error {
	ctx, span := e.tracer.Start(ctx, "ledger.approve",
		trace.WithAttributes(attribute.String("submission.id", submissionID.String())),
	)
	defer span.End()

	now := time.Now().UTC()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sub, err := e.subs.GetByID(ctx, tx, submissionID)
	if err != nil {
		return err
	}

	if err := e.subs.MarkVerified(ctx, tx, submissionID, approvedBy, now); err != nil {
		return err
	}

	var (
		mirror      *MemberStats
		memberPhone string
	)
	if sub.MemberID.Valid {
		mirror, memberPhone, err = applyMemberDeltas(ctx, tx, sub.MemberID.UUID, memberDeltas{
			savings:          sub.Amount,
			fines:            sub.FineAmount,
			verified:         1,
			pending:          -1,
			lastPaymentMonth: sub.PaymentPeriod,
			touchLastPayment: true,
		}, e.cfg.InterestThreshold)
		if err != nil {
			return err
		}
	}

	if sub.FineAmount.IsPositive() {
		// Fines are bucketed by the payment period's year, not the year the
		// admin happens to click approve.
		year := interest.YearFromPeriod(sub.PaymentPeriod, now.Year())
		if err := e.pools.AddFines(ctx, tx, year, sub.FineAmount); err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("interest.pool_year", year))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if mirror != nil {
		e.mirror(ctx, *mirror, GlobalDeltas{
			Savings:  sub.Amount,
			Fines:    sub.FineAmount,
			Verified: 1,
			Pending:  -1,
		})
	}

	e.auditLog.Record(ctx, approvedBy, "submission_approved", "submission", submissionID.String(), map[string]interface{}{
		"reference": sub.Reference,
		"amount":    sub.Amount.String(),
		"fine":      sub.FineAmount.String(),
	})

	if mirror != nil {
		e.dispatcher.Dispatch(notify.Message{
			Kind:  notify.KindPaymentApproved,
			Phone: memberPhone,
			Payload: map[string]string{
				"reference":     sub.Reference,
				"amount":        sub.Amount.StringFixed(2),
				"total_savings": mirror.TotalSavings.StringFixed(2),
			},
		})
	}
	return nil
}

// Reject flips a pending submission to rejected. Counters move; money never does.
func (e *engine) Reject(ctx context.Context, submissionID uuid.UUID, rejectedBy, reason string) error {
	ctx, span := e.tracer.Start(ctx, "ledger.reject",
		trace.WithAttributes(attribute.String("submission.id", submissionID.String())),
	)
	defer span.End()

	now := time.Now().UTC()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sub, err := e.subs.GetByID(ctx, tx, submissionID)
	if err != nil {
		return err
	}

	if err := e.subs.MarkRejected(ctx, tx, submissionID, rejectedBy, reason, now); err != nil {
		return err
	}

	var mirror *MemberStats
	if sub.MemberID.Valid {
		mirror, _, err = applyMemberDeltas(ctx, tx, sub.MemberID.UUID, memberDeltas{
			pending:  -1,
			rejected: 1,
		}, e.cfg.InterestThreshold)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if mirror != nil {
		e.mirror(ctx, *mirror, GlobalDeltas{Pending: -1, Rejected: 1})
	}

	e.auditLog.Record(ctx, rejectedBy, "submission_rejected", "submission", submissionID.String(), map[string]interface{}{
		"reference": sub.Reference,
		"reason":    reason,
	})
	e.dispatcher.Dispatch(notify.Message{
		Kind:  notify.KindPaymentRejected,
		Phone: sub.SubmitterPhone,
		Payload: map[string]string{
			"reference": sub.Reference,
			"reason":    reason,
		},
	})
	return nil
}

// Recalculate rebuilds one member's aggregates from the full submission
// history and overwrites both the member record and the cache. The freshly
// computed values always win; nothing is merged.
func (e *engine) Recalculate(ctx context.Context, memberID uuid.UUID) (*RecalculatedStats, error) {
	ctx, span := e.tracer.Start(ctx, "ledger.recalculate",
		trace.WithAttributes(attribute.String("member.id", memberID.String())),
	)
	defer span.End()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the member row first: a concurrent approval blocks here until the
	// overwrite commits, so its deltas land on top of the recomputed values
	// instead of being folded over and lost.
	var memberRef string
	err = tx.QueryRowContext(ctx, `
		SELECT reference FROM members WHERE id = $1 FOR UPDATE
	`, memberID).Scan(&memberRef)
	if err == sql.ErrNoRows {
		return nil, member.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock member row: %w", err)
	}

	subs, err := e.subs.ListByMember(ctx, tx, memberID)
	if err != nil {
		return nil, err
	}

	stats := Recompute(memberID, subs, e.cfg.InterestThreshold)

	_, err = tx.ExecContext(ctx, `
		UPDATE members
		SET total_savings = $1,
		    total_fines = $2,
		    submission_count = $3,
		    verified_count = $4,
		    pending_count = $5,
		    rejected_count = $6,
		    qualifies_for_interest = $7,
		    updated_at = NOW()
		WHERE id = $8
	`,
		stats.TotalSavings, stats.TotalFines,
		stats.SubmissionCount, stats.VerifiedCount, stats.PendingCount, stats.RejectedCount,
		stats.QualifiesForInterest, memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("overwrite member aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if err := e.cache.UpsertMember(ctx, MemberStats{
		MemberID:             memberID,
		Reference:            memberRef,
		TotalSavings:         stats.TotalSavings,
		TotalFines:           stats.TotalFines,
		SubmissionCount:      stats.SubmissionCount,
		VerifiedCount:        stats.VerifiedCount,
		PendingCount:         stats.PendingCount,
		RejectedCount:        stats.RejectedCount,
		QualifiesForInterest: stats.QualifiesForInterest,
	}); err != nil {
		return nil, err
	}
	if err := e.cache.RefreshGlobal(ctx); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("recalculate.submissions", stats.SubmissionCount))
	return stats, nil
}

// RecalculateAll repairs every member sequentially. One member's failure is
// logged and skipped; the run returns how many succeeded.
func (e *engine) RecalculateAll(ctx context.Context) (int, error) {
	ctx, span := e.tracer.Start(ctx, "ledger.recalculate_all")
	defer span.End()

	members, err := e.members.List(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, m := range members {
		if _, err := e.Recalculate(ctx, m.ID); err != nil {
			log.Printf("ledger: recalculate member %s failed: %v", m.ID, err)
			continue
		}
		processed++
	}

	span.SetAttributes(attribute.Int("recalculate.processed", processed))
	return processed, nil
}

// Dashboard reads the cached global counters: the fast path.
func (e *engine) Dashboard(ctx context.Context) (*DashboardStats, error) {
	return e.cache.Global(ctx)
}

// DashboardSlow sums the authoritative member rows on demand: slower but
// always correct, an implicit recalculation at read time.
func (e *engine) DashboardSlow(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	err := e.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_savings), 0),
		       COALESCE(SUM(total_fines), 0),
		       COALESCE(SUM(submission_count), 0),
		       COALESCE(SUM(verified_count), 0),
		       COALESCE(SUM(pending_count), 0),
		       COALESCE(SUM(rejected_count), 0)
		FROM members
	`).Scan(
		&stats.MemberCount, &stats.TotalSavings, &stats.TotalFines,
		&stats.SubmissionCount, &stats.VerifiedCount, &stats.PendingCount, &stats.RejectedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate members: %w", err)
	}
	return stats, nil
}

// mirror pushes freshly computed values into the aggregate cache. Failures
// warn and move on; the cache is eventually repaired by recalculation.
func (e *engine) mirror(ctx context.Context, stats MemberStats, deltas GlobalDeltas) {
	if err := e.cache.UpsertMember(ctx, stats); err != nil {
		log.Printf("ledger: cache mirror for member %s failed: %v", stats.MemberID, err)
	}
	if err := e.cache.ApplyGlobalDeltas(ctx, deltas); err != nil {
		log.Printf("ledger: global cache mirror failed: %v", err)
	}
}

// memberDeltas are the aggregate changes one transition applies to a member.
type memberDeltas struct {
	savings          decimal.Decimal
	fines            decimal.Decimal
	submissions      int
	verified         int
	pending          int
	rejected         int
	lastPaymentMonth string
	touchLastPayment bool
}

// applyMemberDeltas moves the member aggregates inside the caller's
// transaction using atomic in-place arithmetic, recomputes interest
// eligibility from the post-update savings, and returns the post-update
// values so the cache mirror reuses them instead of recomputing.
func applyMemberDeltas(ctx context.Context, tx *sql.Tx, memberID uuid.UUID, d memberDeltas, threshold decimal.Decimal) (*MemberStats, string, error) {
	stats := &MemberStats{MemberID: memberID}
	var memberPhone string
	err := tx.QueryRowContext(ctx, `
		UPDATE members
		SET total_savings = total_savings + $1,
		    total_fines = total_fines + $2,
		    submission_count = submission_count + $3,
		    verified_count = verified_count + $4,
		    pending_count = GREATEST(pending_count + $5, 0),
		    rejected_count = rejected_count + $6,
		    qualifies_for_interest = (total_savings + $1) >= $7,
		    last_payment_date = CASE WHEN $8 THEN NOW() ELSE last_payment_date END,
		    last_payment_month = CASE WHEN $8 THEN $9 ELSE last_payment_month END,
		    updated_at = NOW()
		WHERE id = $10
		RETURNING reference, phone, total_savings, total_fines,
		          submission_count, verified_count, pending_count, rejected_count,
		          qualifies_for_interest
	`,
		d.savings, d.fines, d.submissions, d.verified, d.pending, d.rejected,
		threshold, d.touchLastPayment, d.lastPaymentMonth, memberID,
	).Scan(
		&stats.Reference, &memberPhone, &stats.TotalSavings, &stats.TotalFines,
		&stats.SubmissionCount, &stats.VerifiedCount, &stats.PendingCount, &stats.RejectedCount,
		&stats.QualifiesForInterest,
	)
	if err == sql.ErrNoRows {
		return nil, "", member.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("apply member deltas: %w", err)
	}
	return stats, memberPhone, nil
}
