package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/mapshow/planplot/pkg/core"
)

// Footprint returns the closed outline of a length x width rectangle
// centred on pos and rotated by heading (radians, counter-clockwise from
// +x). The order is front-left, rear-left, rear-right, front-right, and
// the first corner is repeated at the end.
func Footprint(pos core.Position2D, heading, length, width float64) []geom.XY {
	sin, cos := math.Sincos(heading)
	hl, hw := length/2, width/2

	corner := func(along, across float64) geom.XY {
		return geom.XY{
			X: pos.X + along*cos - across*sin,
			Y: pos.Y + along*sin + across*cos,
		}
	}

	fl := corner(hl, hw)
	return []geom.XY{
		fl,
		corner(-hl, hw),
		corner(-hl, -hw),
		corner(hl, -hw),
		fl,
	}
}
