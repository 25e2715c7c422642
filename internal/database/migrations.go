package database

import (
	"context"
	"fmt"
)

// migrations are applied in order; each statement is idempotent
var migrations = []struct {
	name string
	stmt string
}{
	{
		name: "create_users",
		stmt: `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				provider_id TEXT UNIQUE,
				name TEXT,
				email_verified BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`,
	},
	{
		name: "create_todos",
		stmt: `
			CREATE TABLE IF NOT EXISTS todos (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				text TEXT NOT NULL CHECK (length(btrim(text)) > 0),
				description TEXT,
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
				categories JSONB NOT NULL DEFAULT '[]'::jsonb,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				CHECK (updated_at >= created_at)
			)
		`,
	},
	{
		name: "index_todos_user_created",
		stmt: `CREATE INDEX IF NOT EXISTS idx_todos_user_created ON todos(user_id, created_at DESC)`,
	},
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
	}
	return nil
}
