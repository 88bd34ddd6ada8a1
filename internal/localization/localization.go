// Package localization keeps the latest vehicle pose and draws the vehicle
// marker and footprint outline from it.
package localization

import (
	"sync/atomic"

	"github.com/mapshow/planplot/internal/geo"
	"github.com/mapshow/planplot/internal/plot"
	"github.com/mapshow/planplot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Holder stores the most recent pose. Update and Replot may run on
// different goroutines.
type Holder struct {
	pose atomic.Pointer[core.Pose]
}

// NewHolder returns a holder with no pose.
func NewHolder() *Holder {
	return &Holder{}
}

// Update replaces the stored pose with a copy of p. The last write wins.
func (h *Holder) Update(p *core.Pose) {
	if p == nil {
		return
	}
	cp := *p
	h.pose.Store(&cp)
}

// Pose returns the current pose, or nil before the first update.
func (h *Holder) Pose() *core.Pose {
	return h.pose.Load()
}

// Replot writes the vehicle position marker and footprint outline. Both stay
// untouched when no pose has been received; it reports whether it drew.
func (h *Holder) Replot(position, outline *plot.Line) bool {
	p := h.pose.Load()
	if p == nil {
		return false
	}
	position.SetData([]geom.XY{{X: p.Position.X, Y: p.Position.Y}})
	position.SetVisible(true)
	outline.SetData(geo.Footprint(p.Position, p.Heading, p.Length, p.Width))
	outline.SetVisible(true)
	return true
}
