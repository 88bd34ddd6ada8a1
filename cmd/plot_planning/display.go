package main

import (
	"github.com/gdamore/tcell/v2"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/mapshow/planplot/internal/config"
	"github.com/mapshow/planplot/internal/hdmap"
	"github.com/mapshow/planplot/internal/planning"
	"github.com/mapshow/planplot/internal/plot"
	"github.com/mapshow/planplot/internal/pool"
)

// display is the figure with its three axes and every long-lived dynamic
// primitive.
type display struct {
	figure          *plot.Figure
	main, speed, st *plot.Axes

	pools    planning.Pools
	position *plot.Line
	outline  *plot.Line
}

// newDisplay lays out the 2x3 grid, draws the lanes and creates the pools.
// Pool primitives start at the map centre.
func newDisplay(m *hdmap.Map, sizes config.PoolConfig) *display {
	fig := plot.NewFigure(2, 3)
	d := &display{
		figure: fig,
		main:   fig.Subplot2Grid(0, 0, 2, 2),
		speed:  fig.Subplot2Grid(0, 2, 1, 1),
		st:     fig.Subplot2Grid(1, 2, 1, 1),
	}

	d.main.SetTitle("planning")
	d.main.SetEqualAspect(true)
	m.Draw(d.main)

	d.speed.SetXLabel("t (second)")
	d.speed.SetYLabel("speed (m/s)")
	d.speed.SetXLim(-2, 10)
	d.speed.SetYLim(-1, 10)

	d.st.SetXLabel("t (second)")
	d.st.SetYLabel("s (m)")
	d.st.SetXLim(-1, 9)
	d.st.SetYLim(-1, 90)

	center := []geom.XY{m.Center()}
	origin := []geom.XY{{}}

	d.pools = planning.Pools{
		Path: pool.New(sizes.Path, func(i int) *plot.Line {
			return d.main.Plot(center, plot.PaletteColor(i), plot.Solid)
		}),
		Speed: pool.New(sizes.Speed, func(i int) *plot.Line {
			return d.speed.Plot(center, plot.PaletteColor(i), plot.Dotted)
		}),
		ST: pool.New(sizes.ST, func(i int) *plot.Line {
			return d.st.Plot(origin, plot.PaletteColor(i), plot.Dotted)
		}),
		Obstacles: pool.New(sizes.Obstacle, func(int) *plot.Line {
			return d.st.Plot(origin, tcell.ColorRed, plot.Solid)
		}),
		Labels: pool.New(sizes.Obstacle, func(int) *plot.Text {
			return d.st.AddText(geom.XY{}, "", tcell.ColorSilver)
		}),
	}

	d.position = d.main.Plot(center, tcell.ColorGreen, plot.Marker)
	d.outline = d.main.Plot(center, tcell.ColorGreen, plot.Solid)
	return d
}
