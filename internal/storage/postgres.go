package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPageSize = 1000

// PostgresStore implements EntryStore on the dataset_entries table.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresStore creates an EntryStore backed by pool.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:         pool,
		queryTimeout: queryTimeout,
	}
}

// withTimeout derives a child context with the configured query timeout.
// If queryTimeout is zero, the parent context is returned unchanged.
func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

const recordColumns = `added_id, path, row_id, actor_id, sheet_id, layer, x, y, cells, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	if err := row.Scan(&r.AddedID, &r.Path, &r.RowID, &r.ActorID, &r.SheetID, &r.Layer,
		&r.X, &r.Y, &r.Cells, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveEntry upserts on (path, row_id). A re-saved row keeps its added_id and
// created_at, so load order stays the original insertion order.
func (s *PostgresStore) SaveEntry(ctx context.Context, rec Record) (*Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if rec.Path == "" || rec.RowID == "" {
		return nil, fmt.Errorf("save entry: path and row_id are required")
	}

	query := `
		INSERT INTO dataset_entries (path, row_id, actor_id, sheet_id, layer, x, y, cells)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (path, row_id) DO UPDATE SET
			actor_id   = EXCLUDED.actor_id,
			sheet_id   = EXCLUDED.sheet_id,
			layer      = EXCLUDED.layer,
			x          = EXCLUDED.x,
			y          = EXCLUDED.y,
			cells      = EXCLUDED.cells,
			updated_at = now()
		RETURNING ` + recordColumns

	r, err := scanRecord(s.pool.QueryRow(ctx, query,
		rec.Path, rec.RowID, rec.ActorID, rec.SheetID, rec.Layer, rec.X, rec.Y, rec.Cells,
	))
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, path, rowID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM dataset_entries WHERE path = $1 AND row_id = $2`, path, rowID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", ErrEntryNotFound, path, rowID)
	}
	return nil
}

// GetEntry returns the record for (path, row_id).
func (s *PostgresStore) GetEntry(ctx context.Context, path, rowID string) (*Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM dataset_entries WHERE path = $1 AND row_id = $2`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, path, rowID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrEntryNotFound, path, rowID)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) LoadEntries(ctx context.Context, path, cursor string, limit int) (*Page, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = defaultPageSize
	}

	var afterAddedID int64
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
		if c.Path != path {
			return nil, fmt.Errorf("invalid cursor: issued for path %q", c.Path)
		}
		afterAddedID = c.AddedID
	}

	query := `
		SELECT ` + recordColumns + `
		FROM dataset_entries
		WHERE path = $1 AND added_id > $2
		ORDER BY added_id ASC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, path, afterAddedID, limit)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	page := &Page{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("load entries scan: %w", err)
		}
		page.Records = append(page.Records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load entries rows: %w", err)
	}

	// A full page might have more behind it.
	if len(page.Records) == limit {
		next := Cursor{AddedID: page.Records[len(page.Records)-1].AddedID, Path: path}
		encoded, err := next.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode next cursor: %w", err)
		}
		page.NextCursor = encoded
		page.HasMore = true
	}
	return page, nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}
