package view

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ElementKind discriminates CardElementViewData variants.
type ElementKind string

const (
	KindBackground ElementKind = "background"
	KindText       ElementKind = "text"
)

// Justification is the horizontal alignment of a text element.
type Justification string

const (
	JustifyLeft   Justification = "left"
	JustifyCenter Justification = "center"
	JustifyRight  Justification = "right"
)

// Vec2 is a 2D vector in card-relative units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CardElementViewData declares one visual layer of a card. A card's view is
// an ordered sequence; later elements are drawn on top.
type CardElementViewData interface {
	Kind() ElementKind
	// Columns returns the column indices that feed the element.
	Columns() []int
}

// Background fills the card.
type Background struct {
	Color ColorRGBA `json:"color"`
	Scale Vec2      `json:"scale"`
}

func (Background) Kind() ElementKind { return KindBackground }
func (Background) Columns() []int { return nil }

// Text renders the values of one or more columns.
type Text struct {
	Position      Vec2          `json:"position"`
	Scale         Vec2          `json:"scale"`
	Justify       Justification `json:"justify"`
	FontSize      int           `json:"font_size"`
	Color         ColorRGBA     `json:"color"`
	ColumnIndices []int         `json:"column_indices"`
}

func (Text) Kind() ElementKind { return KindText }
func (t Text) Columns() []int { return t.ColumnIndices }

// Clone copies a view sequence so the copy shares no slices with it.
func Clone(elements []CardElementViewData) []CardElementViewData {
	if elements == nil {
		return nil
	}
	out := slices.Clone(elements)
	for i, el := range out {
		switch el := el.(type) {
		case Text:
			el.ColumnIndices = slices.Clone(el.ColumnIndices)
			out[i] = el
		case *Text:
			c := *el
			c.ColumnIndices = slices.Clone(el.ColumnIndices)
			out[i] = &c
		case *Background:
			c := *el
			out[i] = &c
		}
	}
	return out
}

type taggedElement struct {
	Kind ElementKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Marshal encodes a view sequence as a list of kind-tagged objects.
func Marshal(elements []CardElementViewData) ([]byte, error) {
	out := make([]taggedElement, len(elements))
	for i, el := range elements {
		data, err := json.Marshal(el)
		if err != nil {
			return nil, fmt.Errorf("marshal %s element: %w", el.Kind(), err)
		}
		out[i] = taggedElement{Kind: el.Kind(), Data: data}
	}
	return json.Marshal(out)
}

// Unmarshal decodes a view sequence produced by Marshal.
func Unmarshal(data []byte) ([]CardElementViewData, error) {
	var tagged []taggedElement
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("unmarshal view: %w", err)
	}
	out := make([]CardElementViewData, 0, len(tagged))
	for i, te := range tagged {
		var el CardElementViewData
		switch te.Kind {
		case KindBackground:
			var b Background
			if err := json.Unmarshal(te.Data, &b); err != nil {
				return nil, fmt.Errorf("element #%d: %w", i, err)
			}
			el = b
		case KindText:
			var t Text
			if err := json.Unmarshal(te.Data, &t); err != nil {
				return nil, fmt.Errorf("element #%d: %w", i, err)
			}
			el = t
		default:
			return nil, fmt.Errorf("element #%d: unknown kind %q", i, te.Kind)
		}
		out = append(out, el)
	}
	return out, nil
}
