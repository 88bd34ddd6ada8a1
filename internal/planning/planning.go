// Package planning keeps the latest planning trajectory together with its
// precomputed plot projections.
package planning

import (
	"sync/atomic"

	"github.com/mapshow/planplot/internal/plot"
	"github.com/mapshow/planplot/internal/pool"
	"github.com/mapshow/planplot/pkg/core"
)

// Pools are the primitives the planning charts draw into.
type Pools struct {
	Path      *pool.Pool[*plot.Line]
	Speed     *pool.Pool[*plot.Line]
	ST        *pool.Pool[*plot.Line]
	Obstacles *pool.Pool[*plot.Line]
	Labels    *pool.Pool[*plot.Text]
}

// HideAll hides every primitive of every pool.
func (p Pools) HideAll() {
	p.Path.HideAll()
	p.Speed.HideAll()
	p.ST.HideAll()
	p.Obstacles.HideAll()
	p.Labels.HideAll()
}

type snapshot struct {
	trajectory *core.Trajectory
	paths      []Series
	speeds     []Series
	st         []Series
	bands      []Band
}

// Holder stores the most recent trajectory. Update runs on the transport
// side; the Replot methods run on the redraw goroutine.
type Holder struct {
	maxPathPoints int
	current       atomic.Pointer[snapshot]
}

// NewHolder returns an empty holder. maxPathPoints caps the points kept per
// path; zero keeps all of them.
func NewHolder(maxPathPoints int) *Holder {
	return &Holder{maxPathPoints: maxPathPoints}
}

// Update replaces the stored trajectory and recomputes its projections.
func (h *Holder) Update(t *core.Trajectory) {
	if t == nil {
		return
	}
	st, bands := StationTimeProjection(t)
	h.current.Store(&snapshot{
		trajectory: t,
		paths:      PathProjection(t, h.maxPathPoints),
		speeds:     SpeedProjection(t),
		st:         st,
		bands:      bands,
	})
}

// Trajectory returns the current trajectory, or nil before the first update.
func (h *Holder) Trajectory() *core.Trajectory {
	if s := h.current.Load(); s != nil {
		return s.trajectory
	}
	return nil
}

// ReplotPath draws the path projections into p and returns how many lines
// were filled.
func (h *Holder) ReplotPath(p *pool.Pool[*plot.Line]) int {
	return h.current.Load().replotPath(p)
}

// ReplotSpeed draws the speed projections into p.
func (h *Holder) ReplotSpeed(p *pool.Pool[*plot.Line]) int {
	return h.current.Load().replotSpeed(p)
}

// ReplotStationTime draws obstacle bands with their labels and the ST speed
// profiles. Bands beyond the obstacle pool capacity are dropped. It returns
// the number of bands drawn.
func (h *Holder) ReplotStationTime(obstacles *pool.Pool[*plot.Line], labels *pool.Pool[*plot.Text], series *pool.Pool[*plot.Line]) int {
	return h.current.Load().replotStationTime(obstacles, labels, series)
}

// Replot redraws all three planning charts from the same snapshot.
func (h *Holder) Replot(p Pools) {
	s := h.current.Load()
	s.replotPath(p.Path)
	s.replotSpeed(p.Speed)
	s.replotStationTime(p.Obstacles, p.Labels, p.ST)
}

func (s *snapshot) replotPath(p *pool.Pool[*plot.Line]) int {
	if s == nil {
		return 0
	}
	return fillSeries(p, s.paths)
}

func (s *snapshot) replotSpeed(p *pool.Pool[*plot.Line]) int {
	if s == nil {
		return 0
	}
	return fillSeries(p, s.speeds)
}

func (s *snapshot) replotStationTime(obstacles *pool.Pool[*plot.Line], labels *pool.Pool[*plot.Text], series *pool.Pool[*plot.Line]) int {
	if s == nil {
		return 0
	}
	n := min(len(s.bands), labels.Len())
	n = obstacles.Fill(n, func(i int, l *plot.Line) {
		b := s.bands[i]
		l.SetData(b.Line)
		l.SetVisible(true)

		text := labels.At(i)
		text.SetPosition(b.Label)
		text.SetContent(b.ID)
		text.SetVisible(true)
	})
	fillSeries(series, s.st)
	return n
}

func fillSeries(p *pool.Pool[*plot.Line], series []Series) int {
	return p.Fill(len(series), func(i int, l *plot.Line) {
		l.SetData(series[i].Points)
		l.SetLabel(series[i].Name)
		l.SetVisible(true)
	})
}
