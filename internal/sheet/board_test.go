package sheet

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func card(x, y int, rowID string) Placement {
	return Placement{Position: Position{X: x, Y: y}, RowID: rowID, DataSetID: "note"}
}

func TestLayer_PlaceAndFind(t *testing.T) {
	l := newLayer("base")
	if err := l.Place(card(1, 2, "r1")); err != nil {
		t.Fatalf("Place: %v", err)
	}

	got, ok := l.At(Position{X: 1, Y: 2})
	if !ok || got.RowID != "r1" {
		t.Errorf("At: got %+v, %v", got, ok)
	}
	got, ok = l.Find("r1")
	if !ok || got.Position != (Position{X: 1, Y: 2}) {
		t.Errorf("Find: got %+v, %v", got, ok)
	}
	if l.Len() != 1 {
		t.Errorf("Len: got %d, want 1", l.Len())
	}
}

func TestLayer_PlaceRejectsOccupiedAndDuplicate(t *testing.T) {
	l := newLayer("base")
	l.Place(card(0, 0, "r1"))

	if err := l.Place(card(0, 0, "r2")); !errors.Is(err, ErrPositionOccupied) {
		t.Errorf("occupied: got %v, want ErrPositionOccupied", err)
	}
	if err := l.Place(card(3, 3, "r1")); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("duplicate: got %v, want ErrDuplicateCard", err)
	}
}

func TestLayer_Move(t *testing.T) {
	l := newLayer("base")
	l.Place(card(0, 0, "r1"))
	l.Place(card(1, 0, "r2"))

	if _, err := l.Move("r1", Position{X: 1, Y: 0}); !errors.Is(err, ErrPositionOccupied) {
		t.Errorf("onto occupied: got %v", err)
	}
	if _, err := l.Move("missing", Position{X: 5, Y: 5}); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("missing: got %v", err)
	}

	p, err := l.Move("r1", Position{X: 0, Y: 4})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if p.Position != (Position{X: 0, Y: 4}) {
		t.Errorf("moved to %v", p.Position)
	}
	if _, ok := l.At(Position{X: 0, Y: 0}); ok {
		t.Error("old position still occupied")
	}
	if _, err := l.Move("r1", Position{X: 0, Y: 4}); err != nil {
		t.Errorf("move in place: %v", err)
	}
}

func TestLayer_RejectsOutOfRange(t *testing.T) {
	l := newLayer("base")
	if err := l.Place(card(MaxCoord, MinCoord, "edge")); err != nil {
		t.Fatalf("Place at int32 bounds: %v", err)
	}

	for _, p := range []Position{{X: MaxCoord + 1}, {Y: MinCoord - 1}, {X: math.MaxInt}, {X: math.MinInt}} {
		if err := l.Place(card(p.X, p.Y, "far")); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Place(%v): got %v, want ErrOutOfRange", p, err)
		}
		if _, err := l.Move("edge", p); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Move(%v): got %v, want ErrOutOfRange", p, err)
		}
	}
	if l.Len() != 1 {
		t.Errorf("Len: got %d, want 1", l.Len())
	}
	if got, _ := l.Find("edge"); got.Position != (Position{X: MaxCoord, Y: MinCoord}) {
		t.Errorf("edge card moved to %v", got.Position)
	}
}

func TestPosition_StepDoesNotWrap(t *testing.T) {
	if _, ok := (Position{X: math.MaxInt}).Step(Position{X: 1}); ok {
		t.Error("step right from MaxInt: got ok")
	}
	if _, ok := (Position{Y: math.MinInt}).Step(Position{Y: -1}); ok {
		t.Error("step up from MinInt: got ok")
	}
	got, ok := (Position{X: MaxCoord, Y: 4}).Step(Position{X: 1})
	if !ok || got != (Position{X: MaxCoord + 1, Y: 4}) {
		t.Errorf("step right: got %v, %v", got, ok)
	}
}

func TestLayer_Remove(t *testing.T) {
	l := newLayer("base")
	l.Place(card(0, 0, "r1"))

	if _, err := l.Remove("r1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := l.Remove("r1"); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("second remove: got %v", err)
	}
	if err := l.Place(card(0, 0, "r1")); err != nil {
		t.Errorf("re-place after remove: %v", err)
	}
}

func TestLayer_SnapshotSortedAndDetached(t *testing.T) {
	l := newLayer("base")
	l.Place(card(2, 1, "c"))
	l.Place(card(5, 0, "b"))
	l.Place(card(0, 1, "d"))
	l.Place(card(1, 0, "a"))

	snap := l.Snapshot()
	for i, want := range []string{"a", "b", "d", "c"} {
		if snap[i].RowID != want {
			t.Errorf("snapshot[%d]: got %q, want %q", i, snap[i].RowID, want)
		}
	}

	l.Move("a", Position{X: 9, Y: 9})
	if snap[0].Position != (Position{X: 1, Y: 0}) {
		t.Error("snapshot changed after layer mutation")
	}
}

func TestSheet_Layers(t *testing.T) {
	s := newSheet("s1", "Sheet 1")
	if _, ok := s.CurrentLayer(); ok {
		t.Error("expected no current layer on empty sheet")
	}
	s.AddLayer("base")
	s.AddLayer("overlay")

	cur, ok := s.CurrentLayer()
	if !ok || cur.Name() != "base" {
		t.Errorf("CurrentLayer: got %v", cur)
	}
	if _, err := s.AddLayer("base"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate layer: got %v", err)
	}
	if err := s.SetCurrentLayer("overlay"); err != nil {
		t.Fatalf("SetCurrentLayer: %v", err)
	}
	if err := s.SetCurrentLayer("nope"); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("unknown layer: got %v", err)
	}
	if layers := s.Layers(); len(layers) != 2 || layers[1].Name() != "overlay" {
		t.Errorf("Layers: got %v", layers)
	}
}

func TestBoard_SheetsAndCurrent(t *testing.T) {
	b := NewBoard()
	if _, ok := b.TryGetCurrentSheet(); ok {
		t.Error("expected no current sheet")
	}

	err := b.Exclusive(func(tx *Tx) error {
		if _, err := tx.AddSheet("s1", "One"); err != nil {
			return err
		}
		_, err := tx.AddSheet("s2", "Two")
		return err
	})
	if err != nil {
		t.Fatalf("Exclusive: %v", err)
	}

	id, ok := b.TryGetCurrentSheet()
	if !ok || id != "s1" {
		t.Errorf("TryGetCurrentSheet: got %q, %v", id, ok)
	}

	b.View(func(tx *Tx) error {
		if len(tx.Sheets()) != 2 {
			t.Errorf("Sheets: got %d", len(tx.Sheets()))
		}
		if _, err := tx.Sheet("s3"); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("missing sheet: got %v", err)
		}
		if _, err := tx.Layer("s1", "base"); !errors.Is(err, ErrLayerNotFound) {
			t.Errorf("missing layer: got %v", err)
		}
		return nil
	})

	b.Exclusive(func(tx *Tx) error {
		if _, err := tx.AddSheet("s1", "Again"); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("duplicate sheet: got %v", err)
		}
		if err := tx.SetCurrentSheet("missing"); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("SetCurrentSheet missing: got %v", err)
		}
		return tx.SetCurrentSheet("s2")
	})
	if id, _ := b.TryGetCurrentSheet(); id != "s2" {
		t.Errorf("current after switch: got %q", id)
	}
}

func TestBoard_ExclusiveSerializesMutations(t *testing.T) {
	b := NewBoard()
	b.Exclusive(func(tx *Tx) error {
		s, _ := tx.AddSheet("s1", "")
		_, err := s.AddLayer("base")
		return err
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			b.Exclusive(func(tx *Tx) error {
				l, _ := tx.Layer("s1", "base")
				return l.Place(card(i, 0, string(rune('a'+i))))
			})
		}(i)
		go func() {
			defer wg.Done()
			b.View(func(tx *Tx) error {
				l, _ := tx.Layer("s1", "base")
				_ = l.Snapshot()
				return nil
			})
		}()
	}
	wg.Wait()

	b.View(func(tx *Tx) error {
		l, _ := tx.Layer("s1", "base")
		if l.Len() != 20 {
			t.Errorf("Len: got %d, want 20", l.Len())
		}
		return nil
	})
}

func TestTx_Resolve(t *testing.T) {
	b := NewBoard()
	err := b.View(func(tx *Tx) error {
		_, _, err := tx.Resolve("", "")
		return err
	})
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("empty board: got %v, want ErrSheetNotFound", err)
	}

	b.Exclusive(func(tx *Tx) error {
		s, _ := tx.AddSheet("s1", "One")
		s.AddLayer("base")
		s.AddLayer("top")
		tx.AddSheet("s2", "Two")
		return nil
	})

	b.View(func(tx *Tx) error {
		s, l, err := tx.Resolve("", "")
		if err != nil {
			t.Fatalf("Resolve current: %v", err)
		}
		if s.ID != "s1" || l.Name() != "base" {
			t.Errorf("current: got %s/%s, want s1/base", s.ID, l.Name())
		}
		if _, l, _ := tx.Resolve("s1", "top"); l == nil || l.Name() != "top" {
			t.Errorf("explicit layer: got %v", l)
		}
		if _, _, err := tx.Resolve("s2", ""); !errors.Is(err, ErrLayerNotFound) {
			t.Errorf("sheet without layers: got %v, want ErrLayerNotFound", err)
		}
		if _, _, err := tx.Resolve("nope", "base"); !errors.Is(err, ErrSheetNotFound) {
			t.Errorf("missing sheet: got %v, want ErrSheetNotFound", err)
		}
		return nil
	})
}
