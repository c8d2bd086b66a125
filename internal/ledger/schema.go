// internal/ledger/schema.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the full authoritative + cache layout. Statements are idempotent
// so startup and tests can both run them.
const Schema = `
CREATE TABLE IF NOT EXISTS members (
	id UUID PRIMARY KEY,
	reference TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	surname TEXT NOT NULL,
	date_of_birth DATE NOT NULL,
	id_number TEXT NOT NULL,
	gender TEXT NOT NULL,
	phone TEXT NOT NULL,
	email TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	skipped_months INT NOT NULL DEFAULT 0,
	total_savings NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_fines NUMERIC(14,2) NOT NULL DEFAULT 0,
	submission_count INT NOT NULL DEFAULT 0,
	verified_count INT NOT NULL DEFAULT 0,
	pending_count INT NOT NULL DEFAULT 0,
	rejected_count INT NOT NULL DEFAULT 0,
	qualifies_for_interest BOOLEAN NOT NULL DEFAULT FALSE,
	last_payment_date TIMESTAMPTZ,
	last_payment_month TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT members_phone_key UNIQUE (phone),
	CONSTRAINT members_id_number_key UNIQUE (id_number)
);

CREATE TABLE IF NOT EXISTS credentials (
	member_id UUID PRIMARY KEY REFERENCES members (id),
	password_hash TEXT NOT NULL,
	salt TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id UUID PRIMARY KEY,
	reference TEXT NOT NULL UNIQUE,
	member_id UUID REFERENCES members (id),
	submitter_name TEXT NOT NULL,
	submitter_phone TEXT NOT NULL,
	amount NUMERIC(14,2) NOT NULL,
	payment_date TIMESTAMPTZ NOT NULL,
	payment_period TEXT NOT NULL,
	payment_method TEXT NOT NULL,
	proof_ref TEXT,
	notes TEXT,
	is_late BOOLEAN NOT NULL DEFAULT FALSE,
	fine_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	approved_by TEXT,
	approved_at TIMESTAMPTZ,
	rejected_by TEXT,
	rejected_at TIMESTAMPTZ,
	rejection_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS submissions_member_idx ON submissions (member_id);
CREATE INDEX IF NOT EXISTS submissions_status_idx ON submissions (status);
CREATE INDEX IF NOT EXISTS submissions_phone_idx ON submissions (submitter_phone);

CREATE TABLE IF NOT EXISTS interest_pools (
	year INT PRIMARY KEY,
	total_fines NUMERIC(14,2) NOT NULL DEFAULT 0,
	bank_interest NUMERIC(14,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS otp_codes (
	phone TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	attempts INT NOT NULL DEFAULT 0,
	used BOOLEAN NOT NULL DEFAULT FALSE,
	used_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id UUID PRIMARY KEY,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	details JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reference_counters (
	namespace TEXT PRIMARY KEY,
	value BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS member_stats (
	member_id UUID PRIMARY KEY,
	reference TEXT NOT NULL,
	total_savings NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_fines NUMERIC(14,2) NOT NULL DEFAULT 0,
	submission_count INT NOT NULL DEFAULT 0,
	verified_count INT NOT NULL DEFAULT 0,
	pending_count INT NOT NULL DEFAULT 0,
	rejected_count INT NOT NULL DEFAULT 0,
	qualifies_for_interest BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS global_stats (
	id INT PRIMARY KEY,
	total_savings NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_fines NUMERIC(14,2) NOT NULL DEFAULT 0,
	submission_count INT NOT NULL DEFAULT 0,
	verified_count INT NOT NULL DEFAULT 0,
	pending_count INT NOT NULL DEFAULT 0,
	rejected_count INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
