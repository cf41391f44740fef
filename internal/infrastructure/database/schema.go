package database

import (
	"context"
	"fmt"
)

// schema is the full database schema. CREATE TABLE IF NOT EXISTS makes it
// idempotent, so EnsureSchema can run unconditionally on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id           TEXT PRIMARY KEY,
	action       TEXT NOT NULL,
	handle_name  TEXT NOT NULL,
	handle_id    INTEGER NOT NULL,
	parent_node  TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
) STRICT;

CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log(created_at);
CREATE INDEX IF NOT EXISTS idx_audit_log_handle_name ON audit_log(handle_name);
`

// EnsureSchema creates the database schema if it does not already exist.
// Safe to call on every startup.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
