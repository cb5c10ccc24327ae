package card

import (
	"encoding/json"
	"strings"
)

// Theme holds the color palette applied to every rendered card surface.
type Theme struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
	Name       string `json:"name"`
}

// Layout holds the presentational variants chosen in the editor.
type Layout struct {
	Style     string `json:"style"`
	Alignment string `json:"alignment"`
	Font      string `json:"font"`
}

// ResolvedCard is the fully-defaulted configuration consumed by renderers.
// Every field is guaranteed non-empty after Resolve.
type ResolvedCard struct {
	Theme          Theme  `json:"theme"`
	Layout         Layout `json:"layout"`
	ShapeClass     string `json:"shape_class"`
	AlignmentClass string `json:"alignment_class"`
	StyleClass     string `json:"style_class"`
}

// DefaultTheme is substituted whenever a card has no usable theme blob.
func DefaultTheme() Theme {
	return Theme{
		Primary:    "#3B82F6",
		Secondary:  "#1E40AF",
		Background: "#FFFFFF",
		Text:       "#1F2937",
		Name:       "Default",
	}
}

// DefaultLayout is substituted whenever a card has no usable layout blob.
func DefaultLayout() Layout {
	return Layout{Style: "modern", Alignment: "center", Font: "Inter"}
}

// Resolve merges the persisted theme/layout JSON blobs and shape value with
// the documented defaults. Malformed or partial blobs never leak through: a
// blob that fails to decode, or decodes with missing fields, falls back to
// the default for the missing pieces.
func Resolve(themeJSON, layoutJSON []byte, shape string) ResolvedCard {
	theme := decodeTheme(themeJSON)
	layout := decodeLayout(layoutJSON)

	return ResolvedCard{
		Theme:          theme,
		Layout:         layout,
		ShapeClass:     ShapeClass(shape),
		AlignmentClass: AlignmentClass(layout.Alignment),
		StyleClass:     StyleClass(layout.Style),
	}
}

func decodeTheme(raw []byte) Theme {
	def := DefaultTheme()
	if len(raw) == 0 {
		return def
	}
	var t Theme
	if err := json.Unmarshal(raw, &t); err != nil {
		return def
	}
	if t.Primary == "" {
		t.Primary = def.Primary
	}
	if t.Secondary == "" {
		t.Secondary = def.Secondary
	}
	if t.Background == "" {
		t.Background = def.Background
	}
	if t.Text == "" {
		t.Text = def.Text
	}
	if t.Name == "" {
		t.Name = def.Name
	}
	return t
}

func decodeLayout(raw []byte) Layout {
	def := DefaultLayout()
	if len(raw) == 0 {
		return def
	}
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return def
	}
	if l.Style == "" {
		l.Style = def.Style
	}
	if l.Alignment == "" {
		l.Alignment = def.Alignment
	}
	if l.Font == "" {
		l.Font = def.Font
	}
	return l
}

// ShapeClass maps a stored shape value to its CSS class set. The hexagon
// variant intentionally degrades to the same rounded treatment as "rounded";
// the editor never offered true hexagonal clipping.
func ShapeClass(shape string) string {
	switch shape {
	case "rounded":
		return "rounded-3xl"
	case "circle":
		return "rounded-full aspect-square"
	case "hexagon":
		return "rounded-3xl"
	default:
		return "rounded-2xl"
	}
}

// AlignmentClass maps a layout alignment to its flex/text class set.
// Unrecognized values center, matching the editor default.
func AlignmentClass(alignment string) string {
	const base = "flex flex-col"
	switch alignment {
	case "left":
		return base + " items-start text-left"
	case "right":
		return base + " items-end text-right"
	default:
		return base + " items-center text-center"
	}
}

// StyleClass maps a layout style to its border/shadow preset.
func StyleClass(style string) string {
	switch style {
	case "classic":
		return "border-2 shadow-xl"
	case "minimal":
		return "border border-gray-200 shadow-lg"
	case "creative":
		return "shadow-2xl transform hover:scale-105 transition-transform duration-300"
	default:
		return "shadow-2xl border border-gray-100"
	}
}

// Headline composes the position/company line under the card title:
// both present renders "position at company", otherwise whichever exists,
// otherwise an empty string (the renderer omits the line entirely).
func Headline(position, company string) string {
	position = strings.TrimSpace(position)
	company = strings.TrimSpace(company)
	switch {
	case position != "" && company != "":
		return position + " at " + company
	case position != "":
		return position
	default:
		return company
	}
}
