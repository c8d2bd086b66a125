// internal/interest/store.go
package interest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// Querier is satisfied by *sql.DB and *sql.Tx; the ledger engine routes fines
// into a pool inside its approval transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store persists the per-year pools.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetPool returns the year's pool, zero-valued when no fine has ever been
// routed to that year. A missing year is not an error.
func (s *Store) GetPool(ctx context.Context, year int) (*Pool, error) {
	pool := &Pool{Year: year, TotalFines: decimal.Zero, BankInterest: decimal.Zero}
	err := s.db.QueryRowContext(ctx, `
		SELECT total_fines, bank_interest
		FROM interest_pools
		WHERE year = $1
	`, year).Scan(&pool.TotalFines, &pool.BankInterest)
	if err == sql.ErrNoRows {
		return pool, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query interest pool %d: %w", year, err)
	}
	return pool, nil
}

// AddFines increments a year's fine total, creating the pool on first use.
func (s *Store) AddFines(ctx context.Context, q Querier, year int, amount decimal.Decimal) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO interest_pools (year, total_fines, bank_interest)
		VALUES ($1, $2, 0)
		ON CONFLICT (year) DO UPDATE
		SET total_fines = interest_pools.total_fines + EXCLUDED.total_fines
	`, year, amount)
	if err != nil {
		return fmt.Errorf("add fines to pool %d: %w", year, err)
	}
	return nil
}

// AddBankInterest captures an out-of-band bank interest amount, additive.
func (s *Store) AddBankInterest(ctx context.Context, year int, amount decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interest_pools (year, total_fines, bank_interest)
		VALUES ($1, 0, $2)
		ON CONFLICT (year) DO UPDATE
		SET bank_interest = interest_pools.bank_interest + EXCLUDED.bank_interest
	`, year, amount)
	if err != nil {
		return fmt.Errorf("add bank interest to pool %d: %w", year, err)
	}
	return nil
}
