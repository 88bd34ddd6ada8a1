package plot

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

type cell struct {
	r     rune
	style tcell.Style
}

type fakeScreen struct {
	w, h  int
	cells map[[2]int]cell
	shown int
}

func newFakeScreen(w, h int) *fakeScreen {
	return &fakeScreen{w: w, h: h, cells: map[[2]int]cell{}}
}

func (f *fakeScreen) Size() (int, int) { return f.w, f.h }
func (f *fakeScreen) Clear()           { f.cells = map[[2]int]cell{} }
func (f *fakeScreen) Show()            { f.shown++ }

func (f *fakeScreen) SetContent(x, y int, r rune, _ []rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.cells[[2]int{x, y}] = cell{r: r, style: style}
}

func (f *fakeScreen) row(y int) string {
	var b strings.Builder
	for x := 0; x < f.w; x++ {
		if c, ok := f.cells[[2]int{x, y}]; ok {
			b.WriteRune(c.r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func (f *fakeScreen) text() string {
	rows := make([]string, f.h)
	for y := range rows {
		rows[y] = f.row(y)
	}
	return strings.Join(rows, "\n")
}

func (f *fakeScreen) countBraille(color tcell.Color) int {
	n := 0
	for _, c := range f.cells {
		fg, _, _ := c.style.Decompose()
		if c.r >= brailleBase && c.r <= brailleBase+0xff && fg == color {
			n++
		}
	}
	return n
}
