// internal/submission/store.go
package submission

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so the ledger engine can
// run the write helpers inside its own transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const submissionColumns = `
	id, reference, member_id, submitter_name, submitter_phone,
	amount, payment_date, payment_period, payment_method, proof_ref, notes,
	is_late, fine_amount, status,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	created_at
`

// Store is the authoritative record store for submissions.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new pending submission through q.
func (s *Store) Create(ctx context.Context, q Querier, sub *Submission) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO submissions (
			id, reference, member_id, submitter_name, submitter_phone,
			amount, payment_date, payment_period, payment_method, proof_ref, notes,
			is_late, fine_amount, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		sub.ID, sub.Reference, sub.MemberID, sub.SubmitterName, sub.SubmitterPhone,
		sub.Amount, sub.PaymentDate, sub.PaymentPeriod, sub.PaymentMethod, sub.ProofRef, sub.Notes,
		sub.IsLate, sub.FineAmount, sub.Status, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// GetByID loads a submission through q so a transaction sees its own world.
func (s *Store) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*Submission, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE id = $1
	`, id)
	return scanSubmission(row)
}

func (s *Store) GetByReference(ctx context.Context, ref string) (*Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE reference = $1
	`, ref)
	return scanSubmission(row)
}

func (s *Store) ListByStatus(ctx context.Context, status string) ([]*Submission, error) {
	return s.list(ctx, s.db, `WHERE status = $1`, status)
}

// ListByMember returns every submission linked to a member, oldest first.
// Recalculation folds over exactly this set, inside its own transaction, so
// the query runs through q. Pass nil to read outside any transaction.
func (s *Store) ListByMember(ctx context.Context, q Querier, memberID uuid.UUID) ([]*Submission, error) {
	if q == nil {
		q = s.db
	}
	return s.list(ctx, q, `WHERE member_id = $1`, memberID)
}

func (s *Store) ListByPhone(ctx context.Context, phone string) ([]*Submission, error) {
	return s.list(ctx, s.db, `WHERE submitter_phone = $1`, phone)
}

func (s *Store) list(ctx context.Context, q Querier, where string, arg interface{}) ([]*Submission, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		`+where+`
		ORDER BY created_at ASC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

// ReferenceExists feeds the random reference generator's collision check.
func (s *Store) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM submissions WHERE reference = $1)
	`, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check submission reference: %w", err)
	}
	return exists, nil
}

// MarkVerified flips pending -> verified with a compare-and-set on the
// current status. Exactly one of two racing approvals wins; the loser gets
// ErrAlreadyProcessed and mutates nothing.
func (s *Store) MarkVerified(ctx context.Context, q Querier, id uuid.UUID, approvedBy string, at time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE submissions
		SET status = $1, approved_by = $2, approved_at = $3
		WHERE id = $4 AND status = $5
	`, StatusVerified, approvedBy, at, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark submission verified: %w", err)
	}
	return s.casOutcome(ctx, q, res, id)
}

// MarkRejected flips pending -> rejected under the same compare-and-set.
func (s *Store) MarkRejected(ctx context.Context, q Querier, id uuid.UUID, rejectedBy, reason string, at time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE submissions
		SET status = $1, rejected_by = $2, rejected_at = $3, rejection_reason = $4
		WHERE id = $5 AND status = $6
	`, StatusRejected, rejectedBy, at, reason, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark submission rejected: %w", err)
	}
	return s.casOutcome(ctx, q, res, id)
}

func (s *Store) casOutcome(ctx context.Context, q Querier, res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var status string
	err = q.QueryRowContext(ctx, `SELECT status FROM submissions WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query submission status: %w", err)
	}
	return ErrAlreadyProcessed
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*Submission, error) {
	var (
		sub        Submission
		approvedBy sql.NullString
		approvedAt sql.NullTime
		rejectedBy sql.NullString
		rejectedAt sql.NullTime
		reason     sql.NullString
		proofRef   sql.NullString
		notes      sql.NullString
	)
	err := row.Scan(
		&sub.ID, &sub.Reference, &sub.MemberID, &sub.SubmitterName, &sub.SubmitterPhone,
		&sub.Amount, &sub.PaymentDate, &sub.PaymentPeriod, &sub.PaymentMethod, &proofRef, &notes,
		&sub.IsLate, &sub.FineAmount, &sub.Status,
		&approvedBy, &approvedAt, &rejectedBy, &rejectedAt, &reason,
		&sub.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	sub.ApprovedBy = approvedBy.String
	sub.ApprovedAt = approvedAt.Time
	sub.RejectedBy = rejectedBy.String
	sub.RejectedAt = rejectedAt.Time
	sub.RejectionReason = reason.String
	sub.ProofRef = proofRef.String
	sub.Notes = notes.String
	return &sub, nil
}
