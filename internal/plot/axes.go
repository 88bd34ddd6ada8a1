package plot

import (
	"math"

	"github.com/gdamore/tcell/v2"
	geom "github.com/peterstace/simplefeatures/geom"
)

// LegendLoc places an axes legend.
type LegendLoc int

const (
	// UpperLeft draws the legend inside the plot area, top-left corner.
	UpperLeft LegendLoc = iota
	// UpperCenter draws the legend centred on the title row above the plot.
	UpperCenter
)

// defaultMargin is the fraction of the data span added on each side by
// AutoscaleView.
const defaultMargin = 0.05

// LegendEntry is one labelled series in a legend.
type LegendEntry struct {
	Label string
	Color tcell.Color
}

// Limits is a closed data interval.
type Limits struct {
	Min, Max float64
}

// Span returns Max - Min.
func (l Limits) Span() float64 { return l.Max - l.Min }

// Axes is one plotting area of a Figure. Its lines and texts are drawn in
// insertion order.
type Axes struct {
	row, col, rowspan, colspan int

	title, xlabel, ylabel string

	xlim, ylim  Limits
	equalAspect bool

	dataX, dataY Limits
	hasData      bool

	lines []*Line
	texts []*Text

	legendOn  bool
	legendLoc LegendLoc
	legend    []LegendEntry
}

func newAxes(row, col, rowspan, colspan int) *Axes {
	return &Axes{
		row: row, col: col, rowspan: rowspan, colspan: colspan,
		xlim: Limits{0, 1},
		ylim: Limits{0, 1},
	}
}

// Plot adds a visible line to the axes.
func (a *Axes) Plot(data []geom.XY, color tcell.Color, style LineStyle) *Line {
	l := NewLine(data, color, style)
	a.lines = append(a.lines, l)
	return l
}

// AddText adds a visible annotation to the axes.
func (a *Axes) AddText(pos geom.XY, content string, color tcell.Color) *Text {
	t := NewText(pos, content, color)
	a.texts = append(a.texts, t)
	return t
}

func (a *Axes) Lines() []*Line { return a.lines }
func (a *Axes) Texts() []*Text { return a.texts }

func (a *Axes) SetTitle(s string)  { a.title = s }
func (a *Axes) SetXLabel(s string) { a.xlabel = s }
func (a *Axes) SetYLabel(s string) { a.ylabel = s }

func (a *Axes) SetXLim(lo, hi float64) { a.xlim = Limits{lo, hi} }
func (a *Axes) SetYLim(lo, hi float64) { a.ylim = Limits{lo, hi} }
func (a *Axes) XLim() Limits           { return a.xlim }
func (a *Axes) YLim() Limits           { return a.ylim }

// SetEqualAspect keeps one data unit the same on-screen length on both
// axes, widening whichever view range is too narrow at draw time.
func (a *Axes) SetEqualAspect(on bool) { a.equalAspect = on }

// Relim recomputes the data limits from the finite points of visible
// lines and texts.
func (a *Axes) Relim() {
	a.hasData = false
	extend := func(p geom.XY) {
		if !finite(p.X) || !finite(p.Y) {
			return
		}
		if !a.hasData {
			a.dataX = Limits{p.X, p.X}
			a.dataY = Limits{p.Y, p.Y}
			a.hasData = true
			return
		}
		a.dataX.Min = math.Min(a.dataX.Min, p.X)
		a.dataX.Max = math.Max(a.dataX.Max, p.X)
		a.dataY.Min = math.Min(a.dataY.Min, p.Y)
		a.dataY.Max = math.Max(a.dataY.Max, p.Y)
	}
	for _, l := range a.lines {
		if !l.visible {
			continue
		}
		for _, p := range l.data {
			extend(p)
		}
	}
	for _, t := range a.texts {
		if t.visible {
			extend(t.pos)
		}
	}
}

// dataLimits returns the limits found by the last Relim; ok is false when
// no visible data was found.
func (a *Axes) dataLimits() (x, y Limits, ok bool) {
	return a.dataX, a.dataY, a.hasData
}

// AutoscaleView fits the view limits to the data limits plus a margin.
// Without data the view is left unchanged.
func (a *Axes) AutoscaleView() {
	x, y, ok := a.dataLimits()
	if !ok {
		return
	}
	a.xlim = pad(x)
	a.ylim = pad(y)
}

func pad(l Limits) Limits {
	span := l.Span()
	if span == 0 {
		d := math.Max(math.Abs(l.Min)*defaultMargin, 1)
		return Limits{l.Min - d, l.Max + d}
	}
	m := span * defaultMargin
	return Limits{l.Min - m, l.Max + m}
}

// Legend rebuilds the legend from the currently visible labelled lines.
func (a *Axes) Legend(loc LegendLoc) {
	a.legendOn = true
	a.legendLoc = loc
	a.legend = a.legend[:0]
	for _, l := range a.lines {
		if l.visible && l.label != "" {
			a.legend = append(a.legend, LegendEntry{Label: l.label, Color: l.color})
		}
	}
}

// LegendEntries returns the entries of the last Legend call.
func (a *Axes) LegendEntries() []LegendEntry {
	return a.legend
}

// view returns the limits to draw with for a plot area of the given size
// in dots, applying equal aspect when enabled.
func (a *Axes) view(dotW, dotH int) (Limits, Limits) {
	x, y := a.xlim, a.ylim
	if !a.equalAspect || dotW <= 1 || dotH <= 1 || x.Span() <= 0 || y.Span() <= 0 {
		return x, y
	}
	// braille dots are roughly square, so one data unit per dot on both axes
	perDotX := x.Span() / float64(dotW-1)
	perDotY := y.Span() / float64(dotH-1)
	if perDotX > perDotY {
		half := perDotX * float64(dotH-1) / 2
		c := (y.Min + y.Max) / 2
		y = Limits{c - half, c + half}
	} else {
		half := perDotY * float64(dotW-1) / 2
		c := (x.Min + x.Max) / 2
		x = Limits{c - half, c + half}
	}
	return x, y
}
