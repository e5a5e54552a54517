package actor

import (
	"time"

	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/view"
)

const NoteDataSetID = "note"

var noteColumns = []dataset.ColumnInfo{
	{Index: 0, Name: "title", ValueType: dataset.ValueText, Permission: dataset.PermissionEditable},
	{Index: 1, Name: "body", ValueType: dataset.ValueParagraph, Permission: dataset.PermissionEditable},
	{Index: 2, Name: "created", ValueType: dataset.ValueText, Permission: dataset.PermissionViewOnly},
}

// Note is a sticky-note card: a title, a free-text body and a creation
// timestamp. Its args string is the initial title.
type Note struct {
	Now func() time.Time
}

func (Note) Name() string { return "Note" }
func (Note) Description() string { return "A sticky note with a title and a body." }
func (Note) DataSetID() string { return NoteDataSetID }

func (Note) Columns() []dataset.ColumnInfo {
	cols := make([]dataset.ColumnInfo, len(noteColumns))
	copy(cols, noteColumns)
	return cols
}

func (n Note) Defaults(rowID string) []string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return []string{"New note", "", now().UTC().Format(time.RFC3339)}
}

func (Note) Apply(e *dataset.DataEntry, args string) error {
	if args == "" {
		return nil
	}
	return e.SetValue("title", args)
}

func (Note) View() []view.CardElementViewData {
	ink := view.ColorRGBA{R: 40, G: 40, B: 40, A: 255}
	return []view.CardElementViewData{
		view.Background{
			Color: view.ColorRGBA{R: 255, G: 236, B: 153, A: 255},
			Scale: view.Vec2{X: 1, Y: 1},
		},
		view.Text{
			Position:      view.Vec2{X: 0.5, Y: 0.12},
			Scale:         view.Vec2{X: 0.9, Y: 0.2},
			Justify:       view.JustifyCenter,
			FontSize:      18,
			Color:         ink,
			ColumnIndices: []int{0},
		},
		view.Text{
			Position:      view.Vec2{X: 0.05, Y: 0.35},
			Scale:         view.Vec2{X: 0.9, Y: 0.6},
			Justify:       view.JustifyLeft,
			FontSize:      12,
			Color:         ink,
			ColumnIndices: []int{1},
		},
	}
}
