package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Each collection of the portal is a table of JSON documents keyed by a natural key.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS students (
    id          TEXT PRIMARY KEY,
    th_id       TEXT NOT NULL DEFAULT '',
    prefix      TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL DEFAULT '',
    surname     TEXT NOT NULL DEFAULT '',
    study_plan  TEXT NOT NULL DEFAULT '',
    scores      JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_students_th_id ON students (th_id)`,
	`CREATE INDEX IF NOT EXISTS idx_students_study_plan ON students (study_plan)`,
	`CREATE TABLE IF NOT EXISTS config_documents (
    key         TEXT PRIMARY KEY,
    value       JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS study_plan_stats (
    plan_key    TEXT PRIMARY KEY,
    document    JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// EnsureSchema creates the document tables when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
