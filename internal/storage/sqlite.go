package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteEntriesDDL = `
	CREATE TABLE IF NOT EXISTS dataset_entries (
		added_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		path       TEXT NOT NULL,
		row_id     TEXT NOT NULL,
		actor_id   TEXT NOT NULL,
		sheet_id   TEXT NOT NULL,
		layer      TEXT NOT NULL,
		x          INTEGER NOT NULL,
		y          INTEGER NOT NULL,
		cells      BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,

		UNIQUE (path, row_id)
	);

	CREATE INDEX IF NOT EXISTS idx_dataset_entries_path
		ON dataset_entries (path, added_id);
`

// SQLiteStore implements EntryStore on a single SQLite file, for
// deployments without PostgreSQL. Timestamps are stored as Unix nanoseconds.
type SQLiteStore struct {
	db           *sql.DB
	queryTimeout time.Duration
	mu           sync.Mutex // single writer
}

// NewSQLiteStore opens (creating if needed) the database at path and runs
// its migration.
func NewSQLiteStore(ctx context.Context, path string, queryTimeout time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, queryTimeout: queryTimeout}
	if _, err := db.ExecContext(ctx, sqliteEntriesDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate dataset_entries: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func scanSQLiteRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var (
		r                Record
		cells            []byte
		created, updated int64
	)
	if err := row.Scan(&r.AddedID, &r.Path, &r.RowID, &r.ActorID, &r.SheetID, &r.Layer,
		&r.X, &r.Y, &cells, &created, &updated); err != nil {
		return nil, err
	}
	r.Cells = cells
	r.CreatedAt = time.Unix(0, created).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return &r, nil
}

// SaveEntry upserts on (path, row_id), keeping added_id and created_at of
// an existing row.
func (s *SQLiteStore) SaveEntry(ctx context.Context, rec Record) (*Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if rec.Path == "" || rec.RowID == "" {
		return nil, fmt.Errorf("save entry: path and row_id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixNano()
	query := `
		INSERT INTO dataset_entries (path, row_id, actor_id, sheet_id, layer, x, y, cells, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (path, row_id) DO UPDATE SET
			actor_id   = excluded.actor_id,
			sheet_id   = excluded.sheet_id,
			layer      = excluded.layer,
			x          = excluded.x,
			y          = excluded.y,
			cells      = excluded.cells,
			updated_at = excluded.updated_at
		RETURNING ` + recordColumns

	r, err := scanSQLiteRecord(s.db.QueryRowContext(ctx, query,
		rec.Path, rec.RowID, rec.ActorID, rec.SheetID, rec.Layer, rec.X, rec.Y, []byte(rec.Cells), now, now,
	))
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, path, rowID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM dataset_entries WHERE path = ? AND row_id = ?`, path, rowID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrEntryNotFound, path, rowID)
	}
	return nil
}

// GetEntry returns the record for (path, row_id).
func (s *SQLiteStore) GetEntry(ctx context.Context, path, rowID string) (*Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + recordColumns + ` FROM dataset_entries WHERE path = ? AND row_id = ?`
	r, err := scanSQLiteRecord(s.db.QueryRowContext(ctx, query, path, rowID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrEntryNotFound, path, rowID)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) LoadEntries(ctx context.Context, path, cursor string, limit int) (*Page, error) {
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
		WHERE path = ? AND added_id > ?
		ORDER BY added_id ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, path, afterAddedID, limit)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	page := &Page{}
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("load entries scan: %w", err)
		}
		page.Records = append(page.Records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load entries rows: %w", err)
	}

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

// Ping checks that the database file is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
