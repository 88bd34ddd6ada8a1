package planning

import (
	"github.com/mapshow/planplot/internal/geo"
	"github.com/mapshow/planplot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Series is one named polyline ready to hand to a plot line.
type Series struct {
	Name   string
	Points []geom.XY
}

// Band is one obstacle's ST occupancy drawn as the segment
// (T0, Lower) -> (T1, Upper), labelled with the obstacle ID at its start.
type Band struct {
	ID    string
	Line  []geom.XY
	Label geom.XY
}

// PathProjection converts each path to (x, y) pairs, resampled to at most
// maxPoints points when maxPoints is positive.
func PathProjection(t *core.Trajectory, maxPoints int) []Series {
	out := make([]Series, 0, len(t.Paths))
	for _, p := range t.Paths {
		pts := make([]geom.XY, len(p.Points))
		for i, pt := range p.Points {
			pts[i] = geom.XY{X: pt.X, Y: pt.Y}
		}
		out = append(out, Series{Name: p.Name, Points: geo.Resample(pts, maxPoints)})
	}
	return out
}

// SpeedProjection converts each speed plan to (t - TimeOrigin, v) pairs.
func SpeedProjection(t *core.Trajectory) []Series {
	out := make([]Series, 0, len(t.SpeedPlans))
	for _, sp := range t.SpeedPlans {
		pts := make([]geom.XY, len(sp.Points))
		for i, pt := range sp.Points {
			pts[i] = geom.XY{X: pt.T - t.TimeOrigin, Y: pt.V}
		}
		out = append(out, Series{Name: sp.Name, Points: pts})
	}
	return out
}

// StationTimeProjection converts each ST graph's speed profile to (t, s)
// pairs and every obstacle boundary to a Band.
func StationTimeProjection(t *core.Trajectory) ([]Series, []Band) {
	series := make([]Series, 0, len(t.STGraphs))
	for _, g := range t.STGraphs {
		pts := make([]geom.XY, len(g.SpeedProfile))
		for i, pt := range g.SpeedProfile {
			pts[i] = geom.XY{X: pt.T, Y: pt.S}
		}
		series = append(series, Series{Name: g.Name, Points: pts})
	}

	obstacles := t.Obstacles()
	bands := make([]Band, 0, len(obstacles))
	for _, b := range obstacles {
		start := geom.XY{X: b.T0, Y: b.Lower}
		bands = append(bands, Band{
			ID:    b.ID,
			Line:  []geom.XY{start, {X: b.T1, Y: b.Upper}},
			Label: start,
		})
	}
	return series, bands
}
