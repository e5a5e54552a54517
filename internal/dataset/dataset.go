package dataset

import (
	"fmt"
	"slices"
	"sync"
)

// DataSet is an ordered collection of entries sharing one schema.
type DataSet struct {
	ID   string
	Path string

	mu      sync.RWMutex
	columns []ColumnInfo
	entries []*DataEntry
	byRowID map[string]*DataEntry
}

func newDataSet(id string, columns []ColumnInfo, path string) *DataSet {
	return &DataSet{
		ID:      id,
		Path:    path,
		columns: slices.Clone(columns),
		byRowID: make(map[string]*DataEntry),
	}
}

// Columns returns a copy of the schema.
func (s *DataSet) Columns() []ColumnInfo {
	return slices.Clone(s.columns)
}

// ColumnNames returns the column names in schema order.
func (s *DataSet) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// AddEntry appends an entry. The entry's cells must match the schema one to
// one and its row ID must not already be present.
func (s *DataSet) AddEntry(e *DataEntry) error {
	if e == nil || e.RowID == "" {
		return fmt.Errorf("dataset %s: %w: empty row id", s.ID, ErrInvalidValue)
	}
	if err := s.checkEntry(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byRowID[e.RowID]; ok {
		return fmt.Errorf("dataset %s: %w: %q", s.ID, ErrDuplicateRowID, e.RowID)
	}
	e.setRowIndex(len(s.entries))
	s.entries = append(s.entries, e)
	s.byRowID[e.RowID] = e
	return nil
}

// RemoveEntry removes an entry by row ID. ErrMissingEntry is returned for
// reporting; callers on cleanup paths treat it as a no-op.
func (s *DataSet) RemoveEntry(e *DataEntry) error {
	if e == nil {
		return fmt.Errorf("dataset %s: %w", s.ID, ErrMissingEntry)
	}
	return s.RemoveRowID(e.RowID)
}

// RemoveRowID removes the entry with the given row ID.
func (s *DataSet) RemoveRowID(rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byRowID[rowID]; !ok {
		return fmt.Errorf("dataset %s: %w: %q", s.ID, ErrMissingEntry, rowID)
	}
	delete(s.byRowID, rowID)
	i := slices.IndexFunc(s.entries, func(x *DataEntry) bool { return x.RowID == rowID })
	s.entries = slices.Delete(s.entries, i, i+1)
	for j := i; j < len(s.entries); j++ {
		s.entries[j].setRowIndex(j)
	}
	return nil
}

// GetEntry looks up an entry by row ID.
func (s *DataSet) GetEntry(rowID string) (*DataEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byRowID[rowID]
	return e, ok
}

// Entries returns the entries in insertion order.
func (s *DataSet) Entries() []*DataEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Len returns the number of entries.
func (s *DataSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *DataSet) checkEntry(e *DataEntry) error {
	if len(e.Values) != len(s.columns) {
		return fmt.Errorf("dataset %s: %w: entry %q has %d cells, schema has %d columns",
			s.ID, ErrSchemaMismatch, e.RowID, len(e.Values), len(s.columns))
	}
	for i, col := range s.columns {
		v := e.Values[i]
		if v.ColumnName != col.Name {
			return fmt.Errorf("dataset %s: %w: cell %d is %q, want %q",
				s.ID, ErrSchemaMismatch, i, v.ColumnName, col.Name)
		}
		if v.ValueType != col.ValueType {
			return fmt.Errorf("dataset %s: %w: column %q has type %s, want %s",
				s.ID, ErrSchemaMismatch, col.Name, v.ValueType, col.ValueType)
		}
		if v.RowID != e.RowID {
			return fmt.Errorf("dataset %s: %w: cell %q belongs to row %q",
				s.ID, ErrSchemaMismatch, col.Name, v.RowID)
		}
		if err := checkValue(col.ValueType, v.Value); err != nil {
			return fmt.Errorf("dataset %s: column %q: %w", s.ID, col.Name, err)
		}
	}
	return nil
}
