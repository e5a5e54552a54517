package actor

import (
	"strings"

	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/view"
)

const CounterDataSetID = "counter"

// Counter is a tally card. Its args string is the starting count.
type Counter struct{}

func (Counter) Name() string { return "Counter" }
func (Counter) Description() string { return "A labelled tally." }
func (Counter) DataSetID() string { return CounterDataSetID }

func (Counter) Columns() []dataset.ColumnInfo {
	return []dataset.ColumnInfo{
		{Index: 0, Name: "label", ValueType: dataset.ValueText, Permission: dataset.PermissionEditable},
		{Index: 1, Name: "count", ValueType: dataset.ValueNumeric, Permission: dataset.PermissionEditable},
	}
}

func (Counter) Defaults(rowID string) []string {
	return []string{rowID, "0"}
}

func (Counter) Apply(e *dataset.DataEntry, args string) error {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil
	}
	return e.SetValue("count", args)
}

func (Counter) View() []view.CardElementViewData {
	return []view.CardElementViewData{
		view.Background{
			Color: view.ColorRGBA{R: 200, G: 225, B: 255, A: 255},
			Scale: view.Vec2{X: 1, Y: 1},
		},
		view.Text{
			Position:      view.Vec2{X: 0.5, Y: 0.5},
			Scale:         view.Vec2{X: 0.9, Y: 0.8},
			Justify:       view.JustifyCenter,
			FontSize:      24,
			Color:         view.ColorRGBA{R: 10, G: 30, B: 80, A: 255},
			ColumnIndices: []int{0, 1},
		},
	}
}
