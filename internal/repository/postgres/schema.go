package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the prefixed tables and indexes when they do not
// exist yet. Path uniqueness is enforced with a partial unique index so
// soft-deleted rows never block a path from being reused.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, prefix string) error {
	tables := NewTableNames(prefix)

	createProjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			framework TEXT NOT NULL,
			visibility TEXT NOT NULL DEFAULT 'private',
			dependencies JSONB NOT NULL DEFAULT '{}',
			auto_save BOOLEAN NOT NULL DEFAULT TRUE,
			auto_refresh BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createProjects); err != nil {
		return fmt.Errorf("create projects table: %w", err)
	}

	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			parent_id TEXT REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			path TEXT NOT NULL,
			extension TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			size_in_bytes INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return fmt.Errorf("create nodes table: %w", err)
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `projects_slug ON ` + tables.Projects + `(slug) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `projects_user ON ` + tables.Projects + `(user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `nodes_path ON ` + tables.Nodes + `(project_id, path) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `nodes_project_parent ON ` + tables.Nodes + `(project_id, parent_id)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
