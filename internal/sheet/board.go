package sheet

import (
	"fmt"
	"slices"
	"sync"
)

// Sheet is a named surface split into layers. One layer is current.
type Sheet struct {
	ID   string
	Name string

	layers  map[string]*Layer
	order   []string
	current string
}

func newSheet(id, name string) *Sheet {
	return &Sheet{ID: id, Name: name, layers: make(map[string]*Layer)}
}

// AddLayer creates a layer. The first layer becomes current.
func (s *Sheet) AddLayer(name string) (*Layer, error) {
	if name == "" {
		return nil, fmt.Errorf("sheet %s: %w: empty layer name", s.ID, ErrInvalidName)
	}
	if _, ok := s.layers[name]; ok {
		return nil, fmt.Errorf("sheet %s: %w: layer %q", s.ID, ErrDuplicateName, name)
	}
	l := newLayer(name)
	s.layers[name] = l
	s.order = append(s.order, name)
	if s.current == "" {
		s.current = name
	}
	return l, nil
}

// Layer returns a layer by name.
func (s *Sheet) Layer(name string) (*Layer, error) {
	l, ok := s.layers[name]
	if !ok {
		return nil, fmt.Errorf("sheet %s: %w: %q", s.ID, ErrLayerNotFound, name)
	}
	return l, nil
}

// Layers returns layers in creation order.
func (s *Sheet) Layers() []*Layer {
	out := make([]*Layer, len(s.order))
	for i, name := range s.order {
		out[i] = s.layers[name]
	}
	return out
}

// CurrentLayer returns the current layer, if the sheet has any.
func (s *Sheet) CurrentLayer() (*Layer, bool) {
	l, ok := s.layers[s.current]
	return l, ok
}

func (s *Sheet) SetCurrentLayer(name string) error {
	if _, ok := s.layers[name]; !ok {
		return fmt.Errorf("sheet %s: %w: %q", s.ID, ErrLayerNotFound, name)
	}
	s.current = name
	return nil
}

// Board owns every sheet of a workspace. All sheet and layer access happens
// inside Exclusive or View, which is the lock boundary shared with the
// dataset store: a sequence of moves followed by a cluster query inside one
// Exclusive call is atomic to other callers.
type Board struct {
	mu      sync.RWMutex
	sheets  map[string]*Sheet
	order   []string
	current string
}

func NewBoard() *Board {
	return &Board{sheets: make(map[string]*Sheet)}
}

// Exclusive runs fn with the board locked for writing. The lock is not
// reentrant: fn must not call View, Exclusive or TryGetCurrentSheet, nor
// anything that does (cluster.Engine queries among them). Cluster a layer
// inside fn with tx.Resolve, Layer.Snapshot and cluster.Partition.
func (b *Board) Exclusive(fn func(tx *Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn(&Tx{b: b})
}

// View runs fn with the board locked for reading. fn must not mutate
// sheets or layers.
func (b *Board) View(fn func(tx *Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fn(&Tx{b: b})
}

// TryGetCurrentSheet returns the ID of the current sheet.
func (b *Board) TryGetCurrentSheet() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.current != ""
}

// Tx is the board as seen from inside Exclusive or View.
type Tx struct {
	b *Board
}

// AddSheet creates a sheet. The first sheet becomes current.
func (tx *Tx) AddSheet(id, name string) (*Sheet, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty sheet id", ErrInvalidName)
	}
	if _, ok := tx.b.sheets[id]; ok {
		return nil, fmt.Errorf("%w: sheet %q", ErrDuplicateName, id)
	}
	s := newSheet(id, name)
	tx.b.sheets[id] = s
	tx.b.order = append(tx.b.order, id)
	if tx.b.current == "" {
		tx.b.current = id
	}
	return s, nil
}

// Sheet returns a sheet by ID.
func (tx *Tx) Sheet(id string) (*Sheet, error) {
	s, ok := tx.b.sheets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, id)
	}
	return s, nil
}

// Layer returns a layer of a sheet.
func (tx *Tx) Layer(sheetID, layer string) (*Layer, error) {
	s, err := tx.Sheet(sheetID)
	if err != nil {
		return nil, err
	}
	return s.Layer(layer)
}

// Sheets returns sheets in creation order.
func (tx *Tx) Sheets() []*Sheet {
	out := make([]*Sheet, len(tx.b.order))
	for i, id := range tx.b.order {
		out[i] = tx.b.sheets[id]
	}
	return out
}

// CurrentSheet returns the current sheet, if any.
func (tx *Tx) CurrentSheet() (*Sheet, bool) {
	s, ok := tx.b.sheets[tx.b.current]
	return s, ok
}

func (tx *Tx) SetCurrentSheet(id string) error {
	if !slices.Contains(tx.b.order, id) {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, id)
	}
	tx.b.current = id
	return nil
}

// Resolve returns a sheet and one of its layers. An empty sheetID selects
// the current sheet and an empty layer the sheet's current layer.
func (tx *Tx) Resolve(sheetID, layer string) (*Sheet, *Layer, error) {
	var s *Sheet
	if sheetID == "" {
		cur, ok := tx.CurrentSheet()
		if !ok {
			return nil, nil, fmt.Errorf("%w: no current sheet", ErrSheetNotFound)
		}
		s = cur
	} else {
		var err error
		if s, err = tx.Sheet(sheetID); err != nil {
			return nil, nil, err
		}
	}
	if layer == "" {
		l, ok := s.CurrentLayer()
		if !ok {
			return nil, nil, fmt.Errorf("sheet %s: %w: no current layer", s.ID, ErrLayerNotFound)
		}
		return s, l, nil
	}
	l, err := s.Layer(layer)
	if err != nil {
		return nil, nil, err
	}
	return s, l, nil
}
