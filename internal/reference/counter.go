// internal/reference/counter.go
package reference

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// SQLCounter backs a namespace counter with a postgres row, advanced by a
// single UPDATE ... RETURNING so concurrent callers each see a distinct value.
type SQLCounter struct {
	db *sql.DB
}

func NewSQLCounter(db *sql.DB) *SQLCounter {
	return &SQLCounter{db: db}
}

func (c *SQLCounter) Next(ctx context.Context, namespace string) (int64, error) {
	var value int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO reference_counters (namespace, value)
		VALUES ($1, 1)
		ON CONFLICT (namespace) DO UPDATE
		SET value = reference_counters.value + 1
		RETURNING value
	`, namespace).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next counter value: %w", err)
	}
	return value, nil
}

// MemCounter is an in-process counter for tests and single-node setups.
type MemCounter struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemCounter() *MemCounter {
	return &MemCounter{values: make(map[string]int64)}
}

func (c *MemCounter) Next(_ context.Context, namespace string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[namespace]++
	return c.values[namespace], nil
}
