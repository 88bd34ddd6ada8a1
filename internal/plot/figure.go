package plot

import "github.com/gdamore/tcell/v2"

// Screen is the subset of tcell.Screen the figure draws on.
type Screen interface {
	Size() (width, height int)
	Clear()
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
}

// Figure lays axes out on a rows x cols grid of the screen.
type Figure struct {
	rows, cols int
	axes       []*Axes
}

// NewFigure returns an empty figure with the given grid shape.
func NewFigure(rows, cols int) *Figure {
	return &Figure{rows: max(rows, 1), cols: max(cols, 1)}
}

// Subplot2Grid adds axes covering rowspan x colspan grid cells starting at
// (row, col).
func (f *Figure) Subplot2Grid(row, col, rowspan, colspan int) *Axes {
	ax := newAxes(row, col, max(rowspan, 1), max(colspan, 1))
	f.axes = append(f.axes, ax)
	return ax
}

// Axes returns the figure's axes in creation order.
func (f *Figure) Axes() []*Axes { return f.axes }

// Draw renders every axes to the screen without presenting it.
func (f *Figure) Draw(s Screen) {
	s.Clear()
	w, h := s.Size()
	for _, ax := range f.axes {
		ax.draw(s, f.cellRect(ax, w, h))
	}
}

// Show renders and presents the figure.
func (f *Figure) Show(s Screen) {
	f.Draw(s)
	s.Show()
}

type rect struct {
	x, y, w, h int
}

func (f *Figure) cellRect(ax *Axes, w, h int) rect {
	x0 := ax.col * w / f.cols
	x1 := min(ax.col+ax.colspan, f.cols) * w / f.cols
	y0 := ax.row * h / f.rows
	y1 := min(ax.row+ax.rowspan, f.rows) * h / f.rows
	return rect{x: x0, y: y0, w: x1 - x0, h: y1 - y0}
}
