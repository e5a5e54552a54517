package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrEntryNotFound is returned when no persisted entry matches (path, row_id).
var ErrEntryNotFound = errors.New("entry not found")

// Record is the persisted form of one placed card: the dataset row and
// where it sits on the board. Cells is opaque to storage.
type Record struct {
	AddedID   int64           `json:"added_id"`
	Path      string          `json:"path"`
	RowID     string          `json:"row_id"`
	ActorID   string          `json:"actor_id"`
	SheetID   string          `json:"sheet_id"`
	Layer     string          `json:"layer"`
	X         int             `json:"x"`
	Y         int             `json:"y"`
	Cells     json.RawMessage `json:"cells"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Page is one batch of records from LoadEntries.
type Page struct {
	Records    []Record
	NextCursor string
	HasMore    bool
}

// EntryStore persists dataset entries keyed by their DataSet's storage path.
type EntryStore interface {
	// SaveEntry inserts or replaces the record for (path, row_id). Returns
	// the stored record with added_id.
	SaveEntry(ctx context.Context, rec Record) (*Record, error)

	// DeleteEntry removes the record for (path, row_id).
	DeleteEntry(ctx context.Context, path, rowID string) error

	// LoadEntries pages through the records of a path in insertion order.
	// An empty cursor starts from the beginning.
	LoadEntries(ctx context.Context, path, cursor string, limit int) (*Page, error)
}
