package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates every table and index if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, prefix string) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				name TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL DEFAULT '',
				is_admin BOOLEAN NOT NULL DEFAULT FALSE,
				is_system BOOLEAN NOT NULL DEFAULT FALSE,
				deleted BOOLEAN NOT NULL DEFAULT FALSE,
				api_key_hash TEXT UNIQUE,
				webhook_url TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Users),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				title VARCHAR(255) NOT NULL,
				deleted BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Projects),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				user_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				role TEXT NOT NULL,
				PRIMARY KEY (project_id, user_id)
			)`, tables.ProjectUsers, tables.Projects, tables.Users),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				path TEXT NOT NULL DEFAULT '/',
				user_id UUID NOT NULL REFERENCES %s(id),
				project_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				comments TEXT,
				version VARCHAR(64) NOT NULL,
				status TEXT NOT NULL,
				upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				update_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				raw BYTEA NOT NULL,
				deleted BOOLEAN NOT NULL DEFAULT FALSE
			)`, tables.Objects, tables.Users, tables.Projects),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				name VARCHAR(32) NOT NULL,
				icon TEXT,
				url TEXT,
				url_text TEXT,
				value TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				user_id UUID NOT NULL REFERENCES %s(id),
				object_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				UNIQUE (object_id, user_id)
			)`, tables.Reviews, tables.Users, tables.Objects),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.SystemProperties),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				user_id UUID NOT NULL,
				action TEXT NOT NULL
			)`, tables.AuditLogs),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sproject_users_user ON %s(user_id)`, prefix, tables.ProjectUsers),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sobjects_project ON %s(project_id) WHERE NOT deleted`, prefix, tables.Objects),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%sreviews_user ON %s(user_id)`, prefix, tables.Reviews),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%saudit_logs_date ON %s(date DESC, id DESC)`, prefix, tables.AuditLogs),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table, children first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}
