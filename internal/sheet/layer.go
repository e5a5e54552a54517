package sheet

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrSheetNotFound    = errors.New("sheet not found")
	ErrLayerNotFound    = errors.New("layer not found")
	ErrPositionOccupied = errors.New("position occupied")
	ErrCardNotFound     = errors.New("card not found")
	ErrDuplicateCard    = errors.New("card already placed")
	ErrDuplicateName    = errors.New("name already in use")
	ErrInvalidName      = errors.New("invalid name")
	ErrOutOfRange       = errors.New("position out of range")
)

// Coordinates are stored as 32-bit integers.
const (
	MinCoord = math.MinInt32
	MaxCoord = math.MaxInt32
)

// Position is a cell on the sheet grid. Y grows downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Less orders positions row-major: lowest Y first, then lowest X.
func (p Position) Less(q Position) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

// InRange reports whether both coordinates fit the stored grid.
func (p Position) InRange() bool {
	return p.X >= MinCoord && p.X <= MaxCoord && p.Y >= MinCoord && p.Y <= MaxCoord
}

func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Step moves p by d. It reports false when the sum wraps around, so cells
// on opposite edges of the int range never become neighbours.
func (p Position) Step(d Position) (Position, bool) {
	next := p.Add(d)
	if d.X > 0 && next.X < p.X || d.X < 0 && next.X > p.X ||
		d.Y > 0 && next.Y < p.Y || d.Y < 0 && next.Y > p.Y {
		return Position{}, false
	}
	return next, true
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Placement is a card on a layer: its position and the row that backs it.
type Placement struct {
	Position  Position `json:"position"`
	RowID     string   `json:"row_id"`
	DataSetID string   `json:"dataset_id"`
}

// Layer holds uniquely positioned cards. It is not safe for concurrent use;
// access goes through Board.Exclusive or Board.View.
type Layer struct {
	name  string
	cards map[Position]Placement
	rows  map[string]Position
}

func newLayer(name string) *Layer {
	return &Layer{
		name:  name,
		cards: make(map[Position]Placement),
		rows:  make(map[string]Position),
	}
}

func (l *Layer) Name() string { return l.name }
func (l *Layer) Len() int { return len(l.cards) }

// Place puts a card on an empty position.
func (l *Layer) Place(p Placement) error {
	if !p.Position.InRange() {
		return fmt.Errorf("layer %s: %w: %s", l.name, ErrOutOfRange, p.Position)
	}
	if other, ok := l.cards[p.Position]; ok {
		return fmt.Errorf("layer %s: %w: %s holds %q", l.name, ErrPositionOccupied, p.Position, other.RowID)
	}
	if _, ok := l.rows[p.RowID]; ok {
		return fmt.Errorf("layer %s: %w: %q", l.name, ErrDuplicateCard, p.RowID)
	}
	l.cards[p.Position] = p
	l.rows[p.RowID] = p.Position
	return nil
}

// Move relocates a card to an empty position.
func (l *Layer) Move(rowID string, to Position) (Placement, error) {
	if !to.InRange() {
		return Placement{}, fmt.Errorf("layer %s: %w: %s", l.name, ErrOutOfRange, to)
	}
	from, ok := l.rows[rowID]
	if !ok {
		return Placement{}, fmt.Errorf("layer %s: %w: %q", l.name, ErrCardNotFound, rowID)
	}
	if from == to {
		return l.cards[from], nil
	}
	if other, ok := l.cards[to]; ok {
		return Placement{}, fmt.Errorf("layer %s: %w: %s holds %q", l.name, ErrPositionOccupied, to, other.RowID)
	}
	p := l.cards[from]
	delete(l.cards, from)
	p.Position = to
	l.cards[to] = p
	l.rows[rowID] = to
	return p, nil
}

// Remove takes a card off the layer.
func (l *Layer) Remove(rowID string) (Placement, error) {
	pos, ok := l.rows[rowID]
	if !ok {
		return Placement{}, fmt.Errorf("layer %s: %w: %q", l.name, ErrCardNotFound, rowID)
	}
	p := l.cards[pos]
	delete(l.cards, pos)
	delete(l.rows, rowID)
	return p, nil
}

// At returns the card at a position.
func (l *Layer) At(pos Position) (Placement, bool) {
	p, ok := l.cards[pos]
	return p, ok
}

// Find returns the placement of a row.
func (l *Layer) Find(rowID string) (Placement, bool) {
	pos, ok := l.rows[rowID]
	if !ok {
		return Placement{}, false
	}
	return l.cards[pos], true
}

// Snapshot copies every placement, sorted row-major by position.
func (l *Layer) Snapshot() []Placement {
	out := make([]Placement, 0, len(l.cards))
	for _, p := range l.cards {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position.Less(out[j].Position) })
	return out
}
