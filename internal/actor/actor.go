package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/view"
)

// Actor produces and removes the entries of one card type and describes how
// they render.
type Actor interface {
	Name() string
	Description() string
	GetDataSetID() string
	Columns() []dataset.ColumnInfo
	// GetDefaultDataValues returns one cell per column, in column order.
	GetDefaultDataValues(rowID string) []dataset.DataValue
	// GetElementViewData returns the static card template for the type.
	GetElementViewData() []view.CardElementViewData
	// GetDataEntry creates an entry for rowID, inserts it into the type's
	// DataSet (created on first use) and returns it. args is variant specific.
	GetDataEntry(rowID, args string) (*dataset.DataEntry, error)
	// RemoveEntry removes the most recently produced entry. A missing entry
	// or set is logged and ignored.
	RemoveEntry()
}

// Variant is what a concrete card type supplies. Base turns it into an Actor.
type Variant interface {
	Name() string
	Description() string
	DataSetID() string
	Columns() []dataset.ColumnInfo
	// Defaults returns the raw default value of each column for a new row.
	Defaults(rowID string) []string
	// Apply customises a freshly defaulted entry from the args string.
	Apply(e *dataset.DataEntry, args string) error
	View() []view.CardElementViewData
}

// Base implements Actor on top of a Variant. It tracks the last entry it
// produced so RemoveEntry can clean it up.
type Base struct {
	variant Variant
	store   *dataset.Store
	path    string
	logger  *slog.Logger

	mu      sync.Mutex
	set     *dataset.DataSet
	entry   *dataset.DataEntry
	view    []view.CardElementViewData
	viewFor *dataset.DataSet
}

// New creates an actor for variant whose DataSet lives in store at path.
func New(variant Variant, store *dataset.Store, path string, logger *slog.Logger) *Base {
	return &Base{
		variant: variant,
		store:   store,
		path:    path,
		logger:  logger,
	}
}

func (b *Base) Name() string { return b.variant.Name() }
func (b *Base) Description() string { return b.variant.Description() }
func (b *Base) GetDataSetID() string { return b.variant.DataSetID() }
func (b *Base) Columns() []dataset.ColumnInfo { return b.variant.Columns() }

// Path returns the opaque storage path of the actor's DataSet.
func (b *Base) Path() string { return b.path }

func (b *Base) GetDefaultDataValues(rowID string) []dataset.DataValue {
	cols := b.variant.Columns()
	raw := b.variant.Defaults(rowID)
	values := make([]dataset.DataValue, len(cols))
	for i, col := range cols {
		var v string
		if i < len(raw) {
			v = raw[i]
		}
		values[i] = dataset.NewValue(col, rowID, v)
	}
	return values
}

// GetElementViewData returns a copy of the view cached for the current
// DataSet, building it from the variant the first time the set is seen.
func (b *Base) GetElementViewData() []view.CardElementViewData {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.view == nil {
		b.view = b.variant.View()
	}
	return view.Clone(b.view)
}

func (b *Base) GetDataEntry(rowID, args string) (*dataset.DataEntry, error) {
	set, err := b.store.GetOrCreate(b.variant.DataSetID(), b.variant.Columns(), b.path)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", b.variant.Name(), err)
	}

	entry := dataset.NewEntry(rowID, b.variant.DataSetID(), b.GetDefaultDataValues(rowID))
	if err := b.variant.Apply(entry, args); err != nil {
		return nil, fmt.Errorf("actor %s: apply args: %w", b.variant.Name(), err)
	}
	if err := set.AddEntry(entry); err != nil {
		return nil, fmt.Errorf("actor %s: %w", b.variant.Name(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.viewFor != set {
		b.view = b.variant.View()
		b.viewFor = set
	}
	b.set = set
	b.entry = entry
	return entry, nil
}

func (b *Base) RemoveEntry() {
	b.mu.Lock()
	set, entry := b.set, b.entry
	b.entry = nil
	b.mu.Unlock()

	if set == nil || entry == nil {
		b.logger.Warn("remove entry: no current entry", "actor", b.variant.Name(), "error", dataset.ErrMissingEntry)
		return
	}
	if err := set.RemoveEntry(entry); err != nil {
		b.logger.Warn("remove entry failed", "actor", b.variant.Name(), "row_id", entry.RowID, "error", err)
	}
}

// RemoveEntryByRowID removes a specific row from the actor's DataSet. It
// reports whether a row was removed; missing rows and sets are logged.
func (b *Base) RemoveEntryByRowID(rowID string) bool {
	set, err := b.store.Get(b.variant.DataSetID())
	if err != nil {
		b.logger.Warn("remove entry: no dataset", "actor", b.variant.Name(), "row_id", rowID, "error", err)
		return false
	}
	if err := set.RemoveRowID(rowID); err != nil {
		if !errors.Is(err, dataset.ErrMissingEntry) {
			b.logger.Error("remove entry failed", "actor", b.variant.Name(), "row_id", rowID, "error", err)
		} else {
			b.logger.Warn("remove entry: no such row", "actor", b.variant.Name(), "row_id", rowID)
		}
		return false
	}

	b.mu.Lock()
	if b.entry != nil && b.entry.RowID == rowID {
		b.entry = nil
	}
	b.mu.Unlock()
	return true
}
