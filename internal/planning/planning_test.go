package planning

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/mapshow/planplot/internal/plot"
	"github.com/mapshow/planplot/internal/pool"
	"github.com/mapshow/planplot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(n int) *pool.Pool[*plot.Line] {
	return pool.New(n, func(i int) *plot.Line {
		l := plot.NewLine(nil, plot.PaletteColor(i), plot.Solid)
		l.Hide()
		return l
	})
}

func texts(n int) *pool.Pool[*plot.Text] {
	return pool.New(n, func(int) *plot.Text {
		t := plot.NewText(geom.XY{}, "", tcell.ColorWhite)
		t.Hide()
		return t
	})
}

func newPools() Pools {
	return Pools{
		Path:      lines(4),
		Speed:     lines(4),
		ST:        lines(2),
		Obstacles: lines(10),
		Labels:    texts(10),
	}
}

func visible(p Pools) int {
	return p.Path.VisibleCount() + p.Speed.VisibleCount() + p.ST.VisibleCount() +
		p.Obstacles.VisibleCount() + p.Labels.VisibleCount()
}

func paths(n int) []core.Path {
	out := make([]core.Path, n)
	for i := range out {
		out[i] = core.Path{
			Name:   fmt.Sprintf("path_%d", i),
			Points: []core.PathPoint{{X: float64(i), Y: 0}, {X: float64(i), Y: 1}},
		}
	}
	return out
}

func bands(n int) []core.STBoundary {
	out := make([]core.STBoundary, n)
	for i := range out {
		out[i] = core.STBoundary{ID: fmt.Sprintf("obs_%d", i), T0: 1, T1: 3, Lower: 10, Upper: 20}
	}
	return out
}

func TestReplotBeforeUpdateLeavesEverythingHidden(t *testing.T) {
	h := NewHolder(0)
	p := newPools()
	h.Replot(p)
	assert.Zero(t, visible(p))
	assert.Nil(t, h.Trajectory())
}

func TestReplotEmptyTrajectoryShowsNothing(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{})
	p := newPools()
	h.Replot(p)
	assert.Zero(t, visible(p))
}

func TestReplotPathFillsAtMostPoolSize(t *testing.T) {
	tests := []struct {
		features int
		want     int
	}{
		{features: 1, want: 1},
		{features: 4, want: 4},
		{features: 7, want: 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d paths", tt.features), func(t *testing.T) {
			h := NewHolder(0)
			h.Update(&core.Trajectory{Paths: paths(tt.features)})
			p := lines(4)
			assert.Equal(t, tt.want, h.ReplotPath(p))
			assert.Equal(t, tt.want, p.VisibleCount())
			assert.Equal(t, "path_0", p.At(0).Label())
			assert.Equal(t, []geom.XY{{X: 0, Y: 0}, {X: 0, Y: 1}}, p.At(0).Data())
		})
	}
}

func TestReplotPathResamples(t *testing.T) {
	pts := make([]core.PathPoint, 100)
	for i := range pts {
		pts[i] = core.PathPoint{X: float64(i), Y: float64(i)}
	}
	h := NewHolder(10)
	h.Update(&core.Trajectory{Paths: []core.Path{{Name: "p", Points: pts}}})
	p := lines(1)
	h.ReplotPath(p)

	data := p.At(0).Data()
	require.Len(t, data, 10)
	assert.Equal(t, geom.XY{X: 0, Y: 0}, data[0])
	assert.Equal(t, geom.XY{X: 99, Y: 99}, data[9])
}

func TestReplotSpeedIsRelativeToTimeOrigin(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{
		TimeOrigin: 100,
		SpeedPlans: []core.SpeedPlan{{Name: "dp", Points: []core.SpeedPoint{{T: 100, V: 1}, {T: 102.5, V: 3}}}},
	})
	p := lines(4)
	assert.Equal(t, 1, h.ReplotSpeed(p))
	assert.Equal(t, []geom.XY{{X: 0, Y: 1}, {X: 2.5, Y: 3}}, p.At(0).Data())
	assert.Equal(t, "dp", p.At(0).Label())
}

func TestReplotStationTimeBandEndpoints(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{STGraphs: []core.STGraph{{
		Name:         "dp_st",
		SpeedProfile: []core.STPoint{{T: 0, S: 0}, {T: 1, S: 5}},
		Boundaries:   []core.STBoundary{{ID: "42", T0: 1, T1: 4, Lower: 10, Upper: 25}},
	}}})
	p := newPools()

	assert.Equal(t, 1, h.ReplotStationTime(p.Obstacles, p.Labels, p.ST))
	assert.Equal(t, []geom.XY{{X: 1, Y: 10}, {X: 4, Y: 25}}, p.Obstacles.At(0).Data())
	assert.Equal(t, "42", p.Labels.At(0).Content())
	assert.Equal(t, geom.XY{X: 1, Y: 10}, p.Labels.At(0).Position())
	assert.True(t, p.Labels.At(0).Visible())
	assert.Equal(t, "dp_st", p.ST.At(0).Label())
	assert.Equal(t, 1, p.ST.VisibleCount())
}

func TestReplotStationTimeDropsBandsBeyondCapacity(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{STGraphs: []core.STGraph{
		{Name: "a", Boundaries: bands(7)},
		{Name: "b", Boundaries: bands(5)},
	}})
	p := newPools()

	assert.Equal(t, 10, h.ReplotStationTime(p.Obstacles, p.Labels, p.ST))
	assert.Equal(t, 10, p.Obstacles.VisibleCount())
	assert.Equal(t, 10, p.Labels.VisibleCount())
}

func TestReplotDegenerateBand(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{STGraphs: []core.STGraph{{
		Boundaries: []core.STBoundary{{ID: "z", T0: 2, T1: 2, Lower: 5, Upper: 5}},
	}}})
	p := newPools()
	h.Replot(p)
	assert.Equal(t, []geom.XY{{X: 2, Y: 5}, {X: 2, Y: 5}}, p.Obstacles.At(0).Data())
}

func TestReplotIsIdempotent(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{
		Paths:      paths(2),
		SpeedPlans: []core.SpeedPlan{{Name: "s", Points: []core.SpeedPoint{{T: 1, V: 1}}}},
		STGraphs:   []core.STGraph{{Name: "st", Boundaries: bands(3)}},
	})
	p := newPools()

	h.Replot(p)
	first := visible(p)
	firstPath := p.Path.At(1).Data()

	p.HideAll()
	h.Replot(p)
	assert.Equal(t, first, visible(p))
	assert.Equal(t, firstPath, p.Path.At(1).Data())
}

func TestUpdateReplacesWholesale(t *testing.T) {
	h := NewHolder(0)
	h.Update(&core.Trajectory{Paths: paths(3)})
	h.Update(&core.Trajectory{Paths: paths(1)})
	h.Update(nil)

	p := newPools()
	h.Replot(p)
	assert.Equal(t, 1, p.Path.VisibleCount())
}

func TestConcurrentUpdateAndReplot(t *testing.T) {
	h := NewHolder(0)
	p := newPools()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			n := i%4 + 1
			x := float64(i)
			traj := &core.Trajectory{TimeOrigin: x}
			for j := 0; j < n; j++ {
				traj.Paths = append(traj.Paths, core.Path{Points: []core.PathPoint{{X: x, Y: 0}}})
				traj.SpeedPlans = append(traj.SpeedPlans, core.SpeedPlan{Points: []core.SpeedPoint{{T: 2 * x, V: 1}}})
			}
			h.Update(traj)
		}
	}()
	for i := 0; i < 1000; i++ {
		p.HideAll()
		h.Replot(p)
		// path and speed lines must come from the same trajectory
		require.Equal(t, p.Path.VisibleCount(), p.Speed.VisibleCount())
		if p.Path.VisibleCount() > 0 {
			assert.Equal(t, p.Path.At(0).Data()[0].X, p.Speed.At(0).Data()[0].X)
		}
	}
	wg.Wait()
}
