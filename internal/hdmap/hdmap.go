// Package hdmap loads static lane geometry and draws it as the background
// layer of the main axes.
package hdmap

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mapshow/planplot/internal/geo"
	"github.com/mapshow/planplot/internal/plot"
	geom "github.com/peterstace/simplefeatures/geom"
)

var (
	// ErrUnsupportedFormat is returned for map files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported map format")
	// ErrEmptyMap is returned when a map file holds no drawable geometry.
	ErrEmptyMap = errors.New("map has no lanes")
)

// LaneColor is used for every lane polyline.
var LaneColor = tcell.ColorGray

// Lane is one drawable polyline of the map.
type Lane struct {
	ID   string
	Line []geom.XY
}

// Map is the static lane layer.
type Map struct {
	Lanes []Lane
}

// Load reads a map file, picking the decoder by extension: .txt/.wkt hold
// one WKT geometry per line, .json/.geojson a GeoJSON FeatureCollection and
// .bin/.wkb a single WKB geometry.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map %s: %w", path, err)
	}

	var m *Map
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".wkt":
		m, err = parseWKT(data)
	case ".json", ".geojson":
		m, err = parseGeoJSON(data)
	case ".bin", ".wkb":
		m, err = parseWKB(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse map %s: %w", path, err)
	}
	if len(m.Lanes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyMap)
	}
	return m, nil
}

func parseWKT(data []byte) (*Map, error) {
	m := &Map{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		g, err := geom.UnmarshalWKT(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		m.add(fmt.Sprintf("lane_%d", lineNo), g)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseGeoJSON(data []byte) (*Map, error) {
	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, err
	}
	m := &Map{}
	for i, f := range fc {
		id := fmt.Sprintf("lane_%d", i)
		if v, ok := f.Properties["id"]; ok {
			id = fmt.Sprint(v)
		} else if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		m.add(id, f.Geometry)
	}
	return m, nil
}

func parseWKB(data []byte) (*Map, error) {
	g, err := geom.UnmarshalWKB(data)
	if err != nil {
		return nil, err
	}
	m := &Map{}
	m.add("lane", g)
	return m, nil
}

// add appends every line of g: line strings, polygon exterior rings and
// the members of multi geometries and collections. Points are skipped.
func (m *Map) add(id string, g geom.Geometry) {
	lines := linesOf(g)
	for i, l := range lines {
		laneID := id
		if len(lines) > 1 {
			laneID = fmt.Sprintf("%s/%d", id, i)
		}
		m.Lanes = append(m.Lanes, Lane{ID: laneID, Line: l})
	}
}

func linesOf(g geom.Geometry) [][]geom.XY {
	var out [][]geom.XY
	appendLine := func(ls geom.LineString) {
		if pts := geo.Points(ls.Coordinates()); len(pts) > 0 {
			out = append(out, pts)
		}
	}
	switch g.Type() {
	case geom.TypeLineString:
		ls, _ := g.AsLineString()
		appendLine(ls)
	case geom.TypeMultiLineString:
		mls, _ := g.AsMultiLineString()
		for i := 0; i < mls.NumLineStrings(); i++ {
			appendLine(mls.LineStringN(i))
		}
	case geom.TypePolygon:
		p, _ := g.AsPolygon()
		appendLine(p.ExteriorRing())
	case geom.TypeMultiPolygon:
		mp, _ := g.AsMultiPolygon()
		for i := 0; i < mp.NumPolygons(); i++ {
			appendLine(mp.PolygonN(i).ExteriorRing())
		}
	case geom.TypeGeometryCollection:
		gc, _ := g.AsGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			out = append(out, linesOf(gc.GeometryN(i))...)
		}
	}
	return out
}

// Reproject converts every lane vertex between two EPSG reference systems.
func (m *Map) Reproject(from, to int) error {
	fn, err := geo.Reprojector(from, to)
	if err != nil {
		return err
	}
	for i := range m.Lanes {
		line := make([]geom.XY, len(m.Lanes[i].Line))
		for j, p := range m.Lanes[i].Line {
			line[j] = fn(p)
		}
		m.Lanes[i].Line = line
	}
	return nil
}

// Bounds returns the bounding box of all finite lane vertices; ok is false
// for a map without finite vertices.
func (m *Map) Bounds() (lo, hi geom.XY, ok bool) {
	lo = geom.XY{X: math.Inf(1), Y: math.Inf(1)}
	hi = geom.XY{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, l := range m.Lanes {
		for _, p := range l.Line {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				continue
			}
			lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
			hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
			ok = true
		}
	}
	return lo, hi, ok
}

// Center returns the middle of Bounds, or the origin for a map without
// finite vertices.
func (m *Map) Center() geom.XY {
	lo, hi, ok := m.Bounds()
	if !ok {
		return geom.XY{}
	}
	return geom.XY{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
}

// Draw plots every lane on ax once. The returned lines stay visible for the
// life of the figure.
func (m *Map) Draw(ax *plot.Axes) []*plot.Line {
	lines := make([]*plot.Line, 0, len(m.Lanes))
	for _, l := range m.Lanes {
		lines = append(lines, ax.Plot(l.Line, LaneColor, plot.Solid))
	}
	return lines
}
