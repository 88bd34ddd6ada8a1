package plot

import (
	"math"
	"testing"

	"github.com/gdamore/tcell/v2"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineHideClearsLabel(t *testing.T) {
	l := NewLine(nil, tcell.ColorBlue, Solid)
	l.SetLabel("lane_follow")
	l.Hide()
	assert.False(t, l.Visible())
	assert.Empty(t, l.Label())
}

func TestRelimUsesVisibleFiniteData(t *testing.T) {
	ax := newAxes(0, 0, 1, 1)
	ax.Plot([]geom.XY{{X: 0, Y: 0}, {X: 10, Y: 5}}, tcell.ColorBlue, Solid)
	hidden := ax.Plot([]geom.XY{{X: -100, Y: -100}}, tcell.ColorRed, Solid)
	hidden.Hide()
	ax.Plot([]geom.XY{{X: math.NaN(), Y: 1}, {X: 2, Y: math.Inf(1)}}, tcell.ColorGreen, Dotted)
	ax.AddText(geom.XY{X: 12, Y: 1}, "id", tcell.ColorWhite)

	ax.Relim()
	x, y, ok := ax.dataLimits()
	require.True(t, ok)
	assert.Equal(t, Limits{0, 12}, x)
	assert.Equal(t, Limits{0, 5}, y)

	ax.AutoscaleView()
	assert.InDelta(t, -0.6, ax.XLim().Min, 1e-9)
	assert.InDelta(t, 12.6, ax.XLim().Max, 1e-9)
	assert.InDelta(t, -0.25, ax.YLim().Min, 1e-9)
	assert.InDelta(t, 5.25, ax.YLim().Max, 1e-9)
}

func TestAutoscaleWithoutDataKeepsView(t *testing.T) {
	ax := newAxes(0, 0, 1, 1)
	ax.SetXLim(-2, 10)
	ax.SetYLim(-1, 10)
	ax.Relim()
	ax.AutoscaleView()
	assert.Equal(t, Limits{-2, 10}, ax.XLim())
	assert.Equal(t, Limits{-1, 10}, ax.YLim())
}

func TestAutoscaleSinglePointIsNotDegenerate(t *testing.T) {
	ax := newAxes(0, 0, 1, 1)
	ax.Plot([]geom.XY{{X: 5, Y: 5}}, tcell.ColorRed, Marker)
	ax.Relim()
	ax.AutoscaleView()
	assert.Greater(t, ax.XLim().Span(), 0.0)
	assert.Greater(t, ax.YLim().Span(), 0.0)
}

func TestEqualAspectWidensNarrowAxis(t *testing.T) {
	ax := newAxes(0, 0, 1, 1)
	ax.SetXLim(0, 100)
	ax.SetYLim(0, 10)
	ax.SetEqualAspect(true)

	x, y := ax.view(101, 51)
	assert.Equal(t, Limits{0, 100}, x)
	assert.InDelta(t, 50, y.Span(), 1e-9)
	assert.InDelta(t, 5, (y.Min+y.Max)/2, 1e-9)
}

func TestLegendListsVisibleLabelledLines(t *testing.T) {
	ax := newAxes(0, 0, 1, 1)
	a := ax.Plot(nil, tcell.ColorBlue, Solid)
	a.SetLabel("a")
	b := ax.Plot(nil, tcell.ColorGreen, Solid)
	b.SetLabel("b")
	b.Hide()
	ax.Plot(nil, tcell.ColorRed, Solid)

	ax.Legend(UpperLeft)
	assert.Equal(t, []LegendEntry{{Label: "a", Color: tcell.ColorBlue}}, ax.LegendEntries())

	a.Hide()
	ax.Legend(UpperLeft)
	assert.Empty(t, ax.LegendEntries())
}
