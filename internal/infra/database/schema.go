package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		email         TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('admin', 'teacher')),
		password_hash BYTEA NOT NULL,
		telegram_id   BIGINT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + telegramIDConstraint + ` ON users (telegram_id) WHERE telegram_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS timetables (
		teacher_email TEXT PRIMARY KEY,
		week          JSONB NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS adjustments (
		id                 TEXT PRIMARY KEY,
		teacher_email      TEXT NOT NULL,
		teacher_name       TEXT NOT NULL,
		leave_date         DATE NOT NULL,
		reason             TEXT NOT NULL,
		lectures           JSONB NOT NULL DEFAULT '[]',
		status             TEXT NOT NULL,
		substitute_teacher TEXT,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS adjustments_status_idx ON adjustments (status)`,
	`CREATE INDEX IF NOT EXISTS adjustments_teacher_email_idx ON adjustments (teacher_email)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           TEXT PRIMARY KEY,
		sender_email TEXT NOT NULL,
		sender_name  TEXT NOT NULL,
		sender_role  TEXT NOT NULL,
		recipient    TEXT NOT NULL,
		subject      TEXT NOT NULL,
		body         TEXT NOT NULL,
		sent_at      TIMESTAMPTZ NOT NULL,
		is_read      BOOLEAN NOT NULL DEFAULT FALSE
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	return inTx(ctx, db, func(txn *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := txn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
