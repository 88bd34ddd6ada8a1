package plot

import (
	"github.com/gdamore/tcell/v2"
	geom "github.com/peterstace/simplefeatures/geom"
)

// LineStyle selects how a Line's points are rasterized.
type LineStyle int

const (
	// Solid connects consecutive points.
	Solid LineStyle = iota
	// Dotted plots each point as a single dot.
	Dotted
	// Marker plots each point as a 2x2 dot block.
	Marker
)

// Palette is the cycle used for pooled series: blue, green, red and a
// foreground colour standing in for black on dark terminals.
var Palette = []tcell.Color{tcell.ColorBlue, tcell.ColorGreen, tcell.ColorRed, tcell.ColorWhite}

// PaletteColor returns the i-th palette colour, cycling.
func PaletteColor(i int) tcell.Color {
	return Palette[i%len(Palette)]
}

// Line is a long-lived drawable polyline or marker set. Data passed to
// SetData is retained, not copied: callers hand over immutable slices.
type Line struct {
	color   tcell.Color
	style   LineStyle
	data    []geom.XY
	label   string
	visible bool
}

// NewLine returns a visible line.
func NewLine(data []geom.XY, color tcell.Color, style LineStyle) *Line {
	return &Line{color: color, style: style, data: data, visible: true}
}

func (l *Line) SetData(data []geom.XY) { l.data = data }
func (l *Line) Data() []geom.XY        { return l.data }
func (l *Line) SetVisible(v bool)      { l.visible = v }
func (l *Line) Visible() bool          { return l.visible }
func (l *Line) SetLabel(label string)  { l.label = label }
func (l *Line) Label() string          { return l.label }
func (l *Line) Color() tcell.Color     { return l.color }
func (l *Line) Style() LineStyle       { return l.style }

// Hide makes the line invisible and drops its legend label.
func (l *Line) Hide() {
	l.visible = false
	l.label = ""
}

// Text is a long-lived text annotation anchored at a data position.
type Text struct {
	pos     geom.XY
	content string
	color   tcell.Color
	visible bool
}

// NewText returns a visible annotation.
func NewText(pos geom.XY, content string, color tcell.Color) *Text {
	return &Text{pos: pos, content: content, color: color, visible: true}
}

func (t *Text) SetPosition(pos geom.XY)   { t.pos = pos }
func (t *Text) Position() geom.XY         { return t.pos }
func (t *Text) SetContent(content string) { t.content = content }
func (t *Text) Content() string           { return t.content }
func (t *Text) SetVisible(v bool)         { t.visible = v }
func (t *Text) Visible() bool             { return t.visible }
func (t *Text) Color() tcell.Color        { return t.color }

// Hide makes the annotation invisible.
func (t *Text) Hide() { t.visible = false }
