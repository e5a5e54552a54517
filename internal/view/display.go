package view

// CardDisplayType discriminates the kinds of display a renderer can draw.
type CardDisplayType string

const (
	DisplayString CardDisplayType = "string"
)

// ColorRGBA is a color with 0-255 channels.
type ColorRGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Normalized returns the channels scaled to 0-1 (channel/255). No gamma
// correction is applied.
func (c ColorRGBA) Normalized() [4]float64 {
	return [4]float64{
		float64(c.R) / 255,
		float64(c.G) / 255,
		float64(c.B) / 255,
		float64(c.A) / 255,
	}
}

// CardTextDisplay is a text element as handed to the renderer. Location is
// a fraction of the card extent, not pixels.
type CardTextDisplay struct {
	ID        string        `json:"id"`
	Location  Vec2          `json:"location"`
	Scale     float64       `json:"scale"`
	Text      string        `json:"text"`
	Font      string        `json:"font"`
	FontSize  int           `json:"font_size"`
	Bold      bool          `json:"bold"`
	Italic    bool          `json:"italic"`
	Underline bool          `json:"underline"`
	Alignment Justification `json:"alignment"`
	Color     ColorRGBA     `json:"color"`
}

func (d CardTextDisplay) DisplayType() CardDisplayType { return DisplayString }

// GetNormalizedRGBA returns the display color in 0-1 form.
func (d CardTextDisplay) GetNormalizedRGBA() [4]float64 {
	return d.Color.Normalized()
}

// Equal compares displays by ID only; two displays with the same ID are the
// same logical element whatever their properties.
func (d CardTextDisplay) Equal(other CardTextDisplay) bool {
	return d.ID == other.ID
}
