package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const entriesDDL = `
	CREATE TABLE IF NOT EXISTS dataset_entries (
		added_id   BIGSERIAL PRIMARY KEY,
		path       TEXT NOT NULL,
		row_id     TEXT NOT NULL,
		actor_id   TEXT NOT NULL,
		sheet_id   TEXT NOT NULL,
		layer      TEXT NOT NULL,
		x          INTEGER NOT NULL,
		y          INTEGER NOT NULL,
		cells      JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),

		CONSTRAINT uq_dataset_entries_row UNIQUE (path, row_id)
	);

	CREATE INDEX IF NOT EXISTS idx_dataset_entries_path
		ON dataset_entries (path, added_id);
`

const pluginsDDL = `
	CREATE TABLE IF NOT EXISTS plugins (
		id                  UUID PRIMARY KEY,
		name                TEXT NOT NULL UNIQUE,
		endpoint            TEXT NOT NULL,
		subscribed_datasets TEXT[] NOT NULL,
		status              TEXT NOT NULL DEFAULT 'active',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

// RunMigrations creates the dataset_entries table.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, entriesDDL); err != nil {
		return fmt.Errorf("migrate dataset_entries: %w", err)
	}
	return nil
}

// RunPluginMigration creates the plugins table.
func RunPluginMigration(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, pluginsDDL); err != nil {
		return fmt.Errorf("migrate plugins: %w", err)
	}
	return nil
}
