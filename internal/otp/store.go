// internal/otp/store.go
package otp

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Store persists the one-active-record-per-phone table.
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, phone string) (*Record, error)
	Delete(ctx context.Context, phone string) error
	IncrementAttempts(ctx context.Context, phone string) error
	MarkUsed(ctx context.Context, phone string, at time.Time) error
}

// SQLStore keeps records in postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Upsert(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO otp_codes (phone, code, expires_at, attempts, used, created_at)
		VALUES ($1, $2, $3, 0, FALSE, $4)
		ON CONFLICT (phone) DO UPDATE
		SET code = EXCLUDED.code,
		    expires_at = EXCLUDED.expires_at,
		    attempts = 0,
		    used = FALSE,
		    used_at = NULL,
		    created_at = EXCLUDED.created_at
	`, rec.Phone, rec.Code, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert otp record: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, phone string) (*Record, error) {
	rec := &Record{}
	var usedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT phone, code, expires_at, attempts, used, used_at, created_at
		FROM otp_codes
		WHERE phone = $1
	`, phone).Scan(&rec.Phone, &rec.Code, &rec.ExpiresAt, &rec.Attempts, &rec.Used, &usedAt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoCode
	}
	if err != nil {
		return nil, fmt.Errorf("query otp record: %w", err)
	}
	rec.UsedAt = usedAt.Time
	return rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, phone string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("delete otp record: %w", err)
	}
	return nil
}

func (s *SQLStore) IncrementAttempts(ctx context.Context, phone string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE otp_codes SET attempts = attempts + 1 WHERE phone = $1
	`, phone); err != nil {
		return fmt.Errorf("increment otp attempts: %w", err)
	}
	return nil
}

// MarkUsed consumes the code. The WHERE clause only matches an unused row,
// so of two racing verifications exactly one consumes it; the loser gets
// ErrCodeUsed.
func (s *SQLStore) MarkUsed(ctx context.Context, phone string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE otp_codes SET used = TRUE, used_at = $1 WHERE phone = $2 AND used = FALSE
	`, at, phone)
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM otp_codes WHERE phone = $1)
		`, phone).Scan(&exists); err != nil {
			return fmt.Errorf("mark otp used: %w", err)
		}
		if !exists {
			return ErrNoCode
		}
		return ErrCodeUsed
	}
	return nil
}

// MemStore is an in-process store for tests and single-node development.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*Record)}
}

func (s *MemStore) Upsert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records[rec.Phone] = &clone
	return nil
}

func (s *MemStore) Get(_ context.Context, phone string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[phone]
	if !ok {
		return nil, ErrNoCode
	}
	clone := *rec
	return &clone, nil
}

func (s *MemStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone)
	return nil
}

func (s *MemStore) IncrementAttempts(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[phone]; ok {
		rec.Attempts++
	}
	return nil
}

func (s *MemStore) MarkUsed(_ context.Context, phone string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[phone]
	if !ok {
		return ErrNoCode
	}
	if rec.Used {
		return ErrCodeUsed
	}
	rec.Used = true
	rec.UsedAt = at
	return nil
}
