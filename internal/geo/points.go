package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Points unpacks a coordinate sequence.
func Points(seq geom.Sequence) []geom.XY {
	n := seq.Length()
	out := make([]geom.XY, n)
	for i := 0; i < n; i++ {
		out[i] = seq.GetXY(i)
	}
	return out
}

// Resample keeps at most max points, spread with a uniform stride over the
// input. The last point is always kept and, for max >= 2, so is the first;
// max == 1 yields only the last point. max <= 0 or a short input returns
// points unchanged.
func Resample(points []geom.XY, max int) []geom.XY {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return []geom.XY{points[len(points)-1]}
	}

	out := make([]geom.XY, max)
	last := len(points) - 1
	for i := 0; i < max; i++ {
		out[i] = points[i*last/(max-1)]
	}
	return out
}

// Reprojector returns a function converting coordinates between two EPSG
// reference systems, e.g. 4326 lon/lat into 3857 or a UTM zone.
func Reprojector(from, to int) (func(geom.XY) geom.XY, error) {
	if from == to {
		return func(p geom.XY) geom.XY { return p }, nil
	}
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid EPSG pair %d -> %d", from, to)
	}

	transform := wgs84.EPSG().Transform(from, to)
	return func(p geom.XY) geom.XY {
		x, y, _ := transform(p.X, p.Y, 0)
		return geom.XY{X: x, Y: y}
	}, nil
}
