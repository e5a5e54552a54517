package dataset

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

var (
	// ErrSchemaMismatch is returned when columns or cells disagree with an
	// existing schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDuplicateRowID is returned when a row ID is already in the set.
	ErrDuplicateRowID = errors.New("duplicate row id")
	// ErrMissingEntry is returned when an entry is not in the set.
	ErrMissingEntry = errors.New("entry not found")
	// ErrMissingSet is returned when no set exists for a dataset ID.
	ErrMissingSet = errors.New("dataset not found")

	ErrInvalidSchema = errors.New("invalid schema")
	ErrInvalidValue  = errors.New("invalid value")
	ErrReadOnly      = errors.New("column is read only")
	ErrUnknownColumn = errors.New("unknown column")
)

// Store holds every DataSet of one board, keyed by dataset ID.
type Store struct {
	mu   sync.RWMutex
	sets map[string]*DataSet
}

func NewStore() *Store {
	return &Store{sets: make(map[string]*DataSet)}
}

// GetOrCreate returns the set for id, creating it with the given columns and
// storage path on first use. An existing set whose columns differ yields
// ErrSchemaMismatch.
func (s *Store) GetOrCreate(id string, columns []ColumnInfo, path string) (*DataSet, error) {
	if err := validateColumns(columns); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[id]; ok {
		if !slices.Equal(set.columns, columns) {
			return nil, fmt.Errorf("dataset %s: %w: columns %v, requested %v",
				id, ErrSchemaMismatch, set.ColumnNames(), columnNames(columns))
		}
		return set, nil
	}
	set := newDataSet(id, columns, path)
	s.sets[id] = set
	return set, nil
}

// Get returns the set for id.
func (s *Store) Get(id string) (*DataSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingSet, id)
	}
	return set, nil
}

// List returns all sets ordered by ID.
func (s *Store) List() []*DataSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*DataSet, 0, len(s.sets))
	for _, set := range s.sets {
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func validateColumns(columns []ColumnInfo) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column #%d has empty name", ErrInvalidSchema, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, c.Name)
		}
		seen[c.Name] = true
		if c.Index != i {
			return fmt.Errorf("%w: column %q has index %d, want %d", ErrInvalidSchema, c.Name, c.Index, i)
		}
		if err := checkValue(c.ValueType, ""); err != nil {
			return err
		}
	}
	return nil
}

func columnNames(columns []ColumnInfo) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
