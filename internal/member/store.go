// internal/member/store.go
package member

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const memberColumns = `
	id, reference, full_name, surname, date_of_birth, id_number, gender, phone, email,
	status, skipped_months,
	total_savings, total_fines, submission_count, verified_count, pending_count, rejected_count,
	qualifies_for_interest, last_payment_date, last_payment_month,
	created_at, updated_at
`

// Store is the authoritative record store for members and their credentials.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes a member and credential pair in one transaction.
func (s *Store) Insert(ctx context.Context, m *Member, cred *Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO members (
			id, reference, full_name, surname, date_of_birth, id_number, gender, phone, email,
			status, skipped_months,
			total_savings, total_fines, submission_count, verified_count, pending_count, rejected_count,
			qualifies_for_interest, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, 0, 0, 0, 0, 0, FALSE, NOW(), NOW())
	`, m.ID, m.Reference, m.FullName, m.Surname, m.DateOfBirth, m.IDNumber, m.Gender, m.Phone, m.Email, m.Status)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "members_phone_key":
				return ErrPhoneInUse
			case "members_id_number_key":
				return ErrIDNumberInUse
			}
		}
		return fmt.Errorf("insert member: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (member_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`, cred.MemberID, cred.PasswordHash, cred.Salt)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}

	return tx.Commit()
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE id = $1
	`, id)
	return scanMember(row)
}

func (s *Store) GetByPhone(ctx context.Context, phone string) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE phone = $1
	`, phone)
	return scanMember(row)
}

func (s *Store) GetByIDNumber(ctx context.Context, idNumber string) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE id_number = $1
	`, idNumber)
	return scanMember(row)
}

func (s *Store) List(ctx context.Context) ([]*Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memberColumns+`
		FROM members
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// UpdateProfile patches the identity fields that are allowed to change after
// registration. Nil fields are left untouched.
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, upd *ProfileUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET full_name = COALESCE($1, full_name),
		    surname = COALESCE($2, surname),
		    email = COALESCE($3, email),
		    phone = COALESCE($4, phone),
		    updated_at = NOW()
		WHERE id = $5
	`, upd.FullName, upd.Surname, upd.Email, upd.Phone, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPhoneInUse
		}
		return fmt.Errorf("update member profile: %w", err)
	}
	return requireOneRow(res)
}

// RecordSkippedMonth bumps the consecutive-miss counter and suspends the
// member once it passes the configured maximum.
func (s *Store) RecordSkippedMonth(ctx context.Context, id uuid.UUID, maxSkipped int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET skipped_months = skipped_months + 1,
		    status = CASE WHEN skipped_months + 1 > $1 THEN $2 ELSE status END,
		    updated_at = NOW()
		WHERE id = $3
	`, maxSkipped, StatusSuspended, id)
	if err != nil {
		return fmt.Errorf("record skipped month: %w", err)
	}
	return requireOneRow(res)
}

func (s *Store) GetCredential(ctx context.Context, memberID uuid.UUID) (*Credential, error) {
	cred := &Credential{}
	err := s.db.QueryRowContext(ctx, `
		SELECT member_id, password_hash, salt
		FROM credentials
		WHERE member_id = $1
	`, memberID).Scan(&cred.MemberID, &cred.PasswordHash, &cred.Salt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}
	return cred, nil
}

func (s *Store) UpdateCredential(ctx context.Context, memberID uuid.UUID, hash, salt string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials
		SET password_hash = $1, salt = $2
		WHERE member_id = $3
	`, hash, salt, memberID)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return requireOneRow(res)
}

// ReferenceExists feeds the random reference generator's collision check when
// that strategy is configured for member codes.
func (s *Store) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM members WHERE reference = $1)
	`, ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member reference: %w", err)
	}
	return exists, nil
}

func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*Member, error) {
	var (
		m               Member
		email           sql.NullString
		lastPaymentDate sql.NullTime
		lastPaymentMon  sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.Reference, &m.FullName, &m.Surname, &m.DateOfBirth, &m.IDNumber, &m.Gender, &m.Phone, &email,
		&m.Status, &m.SkippedMonths,
		&m.TotalSavings, &m.TotalFines, &m.SubmissionCount, &m.VerifiedCount, &m.PendingCount, &m.RejectedCount,
		&m.QualifiesForInterest, &lastPaymentDate, &lastPaymentMon,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.Email = email.String
	m.LastPaymentDate = lastPaymentDate.Time
	m.LastPaymentMonth = lastPaymentMon.String
	return &m, nil
}
