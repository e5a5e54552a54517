package actor

import (
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/view"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedNote() Note {
	return Note{Now: func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }}
}

func TestGetDefaultDataValues_MatchesSchema(t *testing.T) {
	store := dataset.NewStore()
	for id, v := range Builtin() {
		a := New(v, store, "", testLogger())
		values := a.GetDefaultDataValues("r1")
		cols := a.Columns()
		if len(values) != len(cols) {
			t.Fatalf("%s: got %d values, want %d", id, len(values), len(cols))
		}
		for i, col := range cols {
			if values[i].ColumnName != col.Name {
				t.Errorf("%s: value %d is %q, want %q", id, i, values[i].ColumnName, col.Name)
			}
			if values[i].ValueType != col.ValueType {
				t.Errorf("%s: value %d type %q, want %q", id, i, values[i].ValueType, col.ValueType)
			}
			if values[i].RowID != "r1" {
				t.Errorf("%s: value %d row id %q", id, i, values[i].RowID)
			}
		}
	}
}

func TestGetDataEntry_CreatesSetLazily(t *testing.T) {
	store := dataset.NewStore()
	a := New(fixedNote(), store, "sets/note", testLogger())

	if _, err := store.Get(NoteDataSetID); !errors.Is(err, dataset.ErrMissingSet) {
		t.Fatalf("expected no set before first entry, got %v", err)
	}

	e, err := a.GetDataEntry("r1", "Groceries")
	if err != nil {
		t.Fatalf("GetDataEntry: %v", err)
	}
	if e.ActorID != NoteDataSetID {
		t.Errorf("ActorID: got %q", e.ActorID)
	}
	if v, _ := e.Value("title"); v.Value != "Groceries" {
		t.Errorf("title: got %q", v.Value)
	}
	if v, _ := e.Value("created"); v.Value != "2024-03-01T12:00:00Z" {
		t.Errorf("created: got %q", v.Value)
	}

	set, err := store.Get(NoteDataSetID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if set.Path != "sets/note" {
		t.Errorf("Path: got %q", set.Path)
	}
	if got, ok := set.GetEntry("r1"); !ok || got != e {
		t.Error("entry not in dataset")
	}
}

func TestGetDataEntry_DuplicateRowID(t *testing.T) {
	a := New(fixedNote(), dataset.NewStore(), "", testLogger())
	if _, err := a.GetDataEntry("r1", ""); err != nil {
		t.Fatalf("GetDataEntry: %v", err)
	}
	_, err := a.GetDataEntry("r1", "")
	if !errors.Is(err, dataset.ErrDuplicateRowID) {
		t.Fatalf("got %v, want ErrDuplicateRowID", err)
	}
}

func TestGetDataEntry_SchemaMismatchWithExistingSet(t *testing.T) {
	store := dataset.NewStore()
	other := Counter{}.Columns()
	if _, err := store.GetOrCreate(NoteDataSetID, other, ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	a := New(fixedNote(), store, "", testLogger())
	if _, err := a.GetDataEntry("r1", ""); !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Fatalf("got %v, want ErrSchemaMismatch", err)
	}
}

func TestGetDataEntry_CounterArgs(t *testing.T) {
	a := New(Counter{}, dataset.NewStore(), "", testLogger())

	e, err := a.GetDataEntry("c1", " 42 ")
	if err != nil {
		t.Fatalf("GetDataEntry: %v", err)
	}
	if v, _ := e.Value("count"); v.Value != "42" {
		t.Errorf("count: got %q", v.Value)
	}
	if v, _ := e.Value("label"); v.Value != "c1" {
		t.Errorf("label: got %q", v.Value)
	}

	if _, err := a.GetDataEntry("c2", "lots"); !errors.Is(err, dataset.ErrInvalidValue) {
		t.Errorf("bad args: got %v, want ErrInvalidValue", err)
	}
}

func TestRemoveEntry_Lifecycle(t *testing.T) {
	store := dataset.NewStore()
	a := New(fixedNote(), store, "", testLogger())

	if _, err := a.GetDataEntry("r1", ""); err != nil {
		t.Fatalf("GetDataEntry: %v", err)
	}
	set, _ := store.Get(NoteDataSetID)

	a.RemoveEntry()
	if _, ok := set.GetEntry("r1"); ok {
		t.Fatal("r1 still in dataset after RemoveEntry")
	}

	// Second call is a no-op.
	a.RemoveEntry()
	if set.Len() != 0 {
		t.Errorf("Len: got %d, want 0", set.Len())
	}
}

func TestRemoveEntry_NothingProduced(t *testing.T) {
	a := New(fixedNote(), dataset.NewStore(), "", testLogger())
	a.RemoveEntry()
}

func TestRemoveEntryByRowID(t *testing.T) {
	store := dataset.NewStore()
	a := New(fixedNote(), store, "", testLogger())

	if a.RemoveEntryByRowID("r1") {
		t.Error("removed a row from a missing set")
	}

	a.GetDataEntry("r1", "")
	a.GetDataEntry("r2", "")

	if !a.RemoveEntryByRowID("r1") {
		t.Fatal("expected r1 to be removed")
	}
	if a.RemoveEntryByRowID("r1") {
		t.Error("second removal reported success")
	}

	// r2 is still the current entry.
	a.RemoveEntry()
	set, _ := store.Get(NoteDataSetID)
	if set.Len() != 0 {
		t.Errorf("Len: got %d, want 0", set.Len())
	}
}

func TestGetElementViewData_Cached(t *testing.T) {
	a := New(fixedNote(), dataset.NewStore(), "", testLogger())

	first := a.GetElementViewData()
	if len(first) != 3 {
		t.Fatalf("view length: got %d, want 3", len(first))
	}
	if first[0].Kind() != view.KindBackground {
		t.Errorf("first element: got %q, want background", first[0].Kind())
	}
	if a.view == nil {
		t.Fatal("expected the view to be cached after the first call")
	}
	cached := &a.view[0]
	a.GetElementViewData()
	if &a.view[0] != cached {
		t.Error("expected the cached view to be reused")
	}
}

func TestGetElementViewData_ReturnsCopy(t *testing.T) {
	a := New(fixedNote(), dataset.NewStore(), "", testLogger())

	first := a.GetElementViewData()
	var textAt int
	for i, el := range first {
		if len(el.Columns()) > 0 {
			textAt = i
			break
		}
	}
	text, ok := first[textAt].(view.Text)
	if !ok {
		t.Fatalf("element %d: got %T, want view.Text", textAt, first[textAt])
	}
	want := slices.Clone(text.ColumnIndices)
	text.ColumnIndices[0] = 99
	first[0] = view.Background{}

	second := a.GetElementViewData()
	if len(second) != 3 {
		t.Fatalf("view length after caller edits: got %d, want 3", len(second))
	}
	if second[0].Kind() != view.KindBackground || second[0] == (view.Background{}) {
		t.Errorf("background changed by caller: got %+v", second[0])
	}
	if got := second[textAt].Columns(); !slices.Equal(got, want) {
		t.Errorf("column indices: got %v, want %v", got, want)
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	store := dataset.NewStore()
	r := NewRegistry(store, testLogger())
	for _, v := range Builtin() {
		if err := r.Register(v, "sets/"+v.DataSetID()); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := r.Register(Note{}, ""); !errors.Is(err, ErrDuplicateKind) {
		t.Errorf("duplicate: got %v, want ErrDuplicateKind", err)
	}

	note, err := r.Actor(NoteDataSetID)
	if err != nil {
		t.Fatalf("Actor: %v", err)
	}
	e, err := note.GetDataEntry("r1", "")
	if err != nil {
		t.Fatalf("GetDataEntry: %v", err)
	}

	got, err := r.Resolve(e)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != note {
		t.Error("Resolve returned a different actor")
	}

	if _, err := r.Actor("sprite"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown: got %v, want ErrUnknownKind", err)
	}

	list := r.List()
	if len(list) != 2 || list[0].GetDataSetID() != CounterDataSetID {
		t.Errorf("List: unexpected order %v", list)
	}
}
