// internal/audit/audit.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Entry is one append-only record of a state-changing action.
type Entry struct {
	ID         uuid.UUID              `json:"id"`
	Actor      string                 `json:"actor"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Log writes entries to an append-only postgres table. Writes are
// best-effort: a failed audit write warns and never propagates, so the
// triggering ledger transition is never rolled back by bookkeeping.
type Log struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewLog(db *sql.DB) *Log {
	return &Log{
		db:     db,
		tracer: otel.Tracer("stokvelhub/audit"),
	}
}

// Record appends an entry, swallowing any failure.
func (l *Log) Record(ctx context.Context, actor, action, entityType, entityID string, details map[string]interface{}) {
	if err := l.append(ctx, actor, action, entityType, entityID, details); err != nil {
		log.Printf("audit: failed to record %s on %s/%s: %v", action, entityType, entityID, err)
	}
}

func (l *Log) append(ctx context.Context, actor, action, entityType, entityID string, details map[string]interface{}) error {
	ctx, span := l.tracer.Start(ctx, "audit.append",
		trace.WithAttributes(
			attribute.String("audit.action", action),
			attribute.String("audit.entity_type", entityType),
			attribute.String("audit.entity_id", entityID),
		),
	)
	defer span.End()

	detailsJSON, _ := json.Marshal(details)

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, actor, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), actor, action, entityType, entityID, detailsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx, span := l.tracer.Start(ctx, "audit.list",
		trace.WithAttributes(attribute.Int("audit.limit", limit)),
	)
	defer span.End()

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, details, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry       Entry
			detailsJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.EntityType, &entry.EntityID, &detailsJSON, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(detailsJSON) > 0 {
			json.Unmarshal(detailsJSON, &entry.Details)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}

	span.SetAttributes(attribute.Int("audit.entries", len(entries)))
	return entries, nil
}
