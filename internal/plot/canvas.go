package plot

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

// braille dot bit for (column, row) within a 2x4 cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

// Canvas is a dot raster backed by braille cells: each terminal cell holds
// 2x4 dots. Dot (0, 0) is the top-left corner.
type Canvas struct {
	cols, rows int
	bits       []uint8
	colors     []tcell.Color
}

// NewCanvas returns a blank canvas of cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &Canvas{
		cols:   cols,
		rows:   rows,
		bits:   make([]uint8, cols*rows),
		colors: make([]tcell.Color, cols*rows),
	}
}

// Dots returns the canvas resolution in dots.
func (c *Canvas) Dots() (width, height int) {
	return c.cols * 2, c.rows * 4
}

// Set lights a single dot. Out of range dots are ignored.
func (c *Canvas) Set(x, y int, color tcell.Color) {
	if x < 0 || y < 0 || x >= c.cols*2 || y >= c.rows*4 {
		return
	}
	i := (y/4)*c.cols + x/2
	c.bits[i] |= brailleBits[y%4][x%2]
	c.colors[i] = color
}

// Line draws a segment between two dots with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int, color tcell.Color) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Cell returns the braille rune and colour of a terminal cell; ok is false
// when no dot in the cell is lit.
func (c *Canvas) Cell(col, row int) (r rune, color tcell.Color, ok bool) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return 0, tcell.ColorDefault, false
	}
	i := row*c.cols + col
	if c.bits[i] == 0 {
		return 0, tcell.ColorDefault, false
	}
	return rune(brailleBase + int(c.bits[i])), c.colors[i], true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clipSegment clips the segment to the box [0,w]x[0,h] (Liang-Barsky).
// ok is false when the segment lies entirely outside.
func clipSegment(x0, y0, x1, y1, w, h float64) (cx0, cy0, cx1, cy1 float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0},
		{dx, w - x0},
		{-dy, y0},
		{dy, h - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
