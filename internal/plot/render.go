package plot

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
)

const (
	yTickWidth = 8
	minCols    = yTickWidth + 4
	minRows    = 6
)

var (
	styleFrame = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleLabel = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleTitle = tcell.StyleDefault.Bold(true)
)

// draw renders the axes into r: title row, framed plot area with y ticks
// on the left, x ticks and x label underneath.
func (a *Axes) draw(s Screen, r rect) {
	if r.w < minCols || r.h < minRows {
		return
	}
	// plot area inside the frame
	area := rect{
		x: r.x + yTickWidth + 1,
		y: r.y + 2,
		w: r.w - yTickWidth - 2,
		h: r.h - 5,
	}
	if area.w <= 0 || area.h <= 0 {
		return
	}
	a.drawFrame(s, area)

	canvas := NewCanvas(area.w, area.h)
	dotW, dotH := canvas.Dots()
	xl, yl := a.view(dotW, dotH)

	for _, l := range a.lines {
		if l.visible {
			rasterize(canvas, l, xl, yl)
		}
	}
	for row := 0; row < area.h; row++ {
		for col := 0; col < area.w; col++ {
			if ch, c, ok := canvas.Cell(col, row); ok {
				s.SetContent(area.x+col, area.y+row, ch, nil, tcell.StyleDefault.Foreground(c))
			}
		}
	}

	for _, t := range a.texts {
		if !t.visible || t.content == "" {
			continue
		}
		px, py, ok := toDot(t.pos.X, t.pos.Y, xl, yl, dotW, dotH)
		if !ok || px < 0 || py < 0 || px > float64(dotW-1) || py > float64(dotH-1) {
			continue
		}
		col, row := int(px)/2, int(py)/4
		drawText(s, area.x+col, area.y+row, area.w-col, tcell.StyleDefault.Foreground(t.color), t.content)
	}

	title := a.title
	if a.ylabel != "" {
		if title != "" {
			title += "  "
		}
		title += "[" + a.ylabel + "]"
	}
	drawText(s, r.x, r.y, r.w, styleTitle, title)

	drawText(s, r.x, area.y, yTickWidth, styleLabel, fmtTick(yl.Max, yTickWidth))
	drawText(s, r.x, area.y+area.h-1, yTickWidth, styleLabel, fmtTick(yl.Min, yTickWidth))

	tickRow := area.y + area.h + 1
	lo := fmtTick(xl.Min, yTickWidth)
	hi := fmtTick(xl.Max, yTickWidth)
	drawText(s, area.x, tickRow, area.w, styleLabel, lo)
	drawText(s, area.x+area.w-len([]rune(hi)), tickRow, len([]rune(hi)), styleLabel, hi)
	if a.xlabel != "" {
		n := len([]rune(a.xlabel))
		drawText(s, area.x+max((area.w-n)/2, 0), tickRow+1, area.w, styleLabel, a.xlabel)
	}

	if a.legendOn && len(a.legend) > 0 {
		a.drawLegend(s, r, area)
	}
}

func (a *Axes) drawFrame(s Screen, area rect) {
	left, right := area.x-1, area.x+area.w
	top, bottom := area.y-1, area.y+area.h
	for x := area.x; x < right; x++ {
		s.SetContent(x, top, '─', nil, styleFrame)
		s.SetContent(x, bottom, '─', nil, styleFrame)
	}
	for y := area.y; y < bottom; y++ {
		s.SetContent(left, y, '│', nil, styleFrame)
		s.SetContent(right, y, '│', nil, styleFrame)
	}
	s.SetContent(left, top, '┌', nil, styleFrame)
	s.SetContent(right, top, '┐', nil, styleFrame)
	s.SetContent(left, bottom, '└', nil, styleFrame)
	s.SetContent(right, bottom, '┘', nil, styleFrame)
}

func (a *Axes) drawLegend(s Screen, r, area rect) {
	switch a.legendLoc {
	case UpperCenter:
		var width int
		for _, e := range a.legend {
			width += len([]rune(e.Label)) + 3
		}
		x := r.x + max((r.w-width)/2, 0)
		for _, e := range a.legend {
			x += drawText(s, x, r.y+1, r.x+r.w-x, tcell.StyleDefault.Foreground(e.Color), "━ "+e.Label+" ")
		}
	default:
		for i, e := range a.legend {
			if i >= area.h {
				return
			}
			drawText(s, area.x, area.y+i, area.w, tcell.StyleDefault.Foreground(e.Color), "━ "+e.Label)
		}
	}
}

// rasterize draws a line's points on the canvas. Non-finite points break
// a solid line into separate runs.
func rasterize(c *Canvas, l *Line, xl, yl Limits) {
	w, h := c.Dots()
	maxX, maxY := float64(w-1), float64(h-1)
	var prevX, prevY float64
	havePrev := false
	for _, p := range l.data {
		px, py, ok := toDot(p.X, p.Y, xl, yl, w, h)
		if !ok {
			havePrev = false
			continue
		}
		switch l.style {
		case Solid:
			if !havePrev {
				if len(l.data) == 1 {
					c.Set(round(px), round(py), l.color)
				}
				prevX, prevY, havePrev = px, py, true
				continue
			}
			if x0, y0, x1, y1, in := clipSegment(prevX, prevY, px, py, maxX, maxY); in {
				c.Line(round(x0), round(y0), round(x1), round(y1), l.color)
			}
			prevX, prevY = px, py
		case Marker:
			x, y := round(px), round(py)
			c.Set(x, y, l.color)
			c.Set(x+1, y, l.color)
			c.Set(x, y+1, l.color)
			c.Set(x+1, y+1, l.color)
		default:
			c.Set(round(px), round(py), l.color)
		}
	}
}

// toDot maps data coordinates to canvas dots, y growing downwards.
func toDot(x, y float64, xl, yl Limits, w, h int) (float64, float64, bool) {
	if !finite(x) || !finite(y) || xl.Span() <= 0 || yl.Span() <= 0 {
		return 0, 0, false
	}
	px := (x - xl.Min) / xl.Span() * float64(w-1)
	py := (yl.Max - y) / yl.Span() * float64(h-1)
	return px, py, true
}

func round(v float64) int {
	// clamp keeps far off-canvas points from overflowing int
	return int(math.Round(math.Max(math.Min(v, 1e9), -1e9)))
}

func fmtTick(v float64, width int) string {
	s := fmt.Sprintf("%.4g", v)
	if len(s) > width {
		s = fmt.Sprintf("%.2e", v)
	}
	return s
}

// drawText writes text starting at (x, y), truncated to maxWidth cells,
// and returns the number of cells written.
func drawText(s Screen, x, y, maxWidth int, style tcell.Style, text string) int {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			break
		}
		s.SetContent(x+col, y, r, nil, style)
		col++
	}
	return col
}
