// pkg/core/trajectory.go
package core

// Trajectory is one planning cycle's output. Every message replaces the
// previous one; nothing is merged.
type Trajectory struct {
	// TimeOrigin is the record's own reference time in seconds. Speed
	// samples are plotted relative to it.
	TimeOrigin float64     `json:"timeOrigin" msgpack:"timeOrigin"`
	Paths      []Path      `json:"paths,omitempty" msgpack:"paths,omitempty"`
	SpeedPlans []SpeedPlan `json:"speedPlans,omitempty" msgpack:"speedPlans,omitempty"`
	STGraphs   []STGraph   `json:"stGraphs,omitempty" msgpack:"stGraphs,omitempty"`
}

// Path is one candidate path, e.g. the planned path or a debug variant.
type Path struct {
	Name   string      `json:"name" msgpack:"name"`
	Points []PathPoint `json:"points" msgpack:"points"`
}

// PathPoint is a point on a path with its accumulated arc length.
type PathPoint struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	S float64 `json:"s" msgpack:"s"`
}

// SpeedPlan is a speed profile sampled over absolute time.
type SpeedPlan struct {
	Name   string       `json:"name" msgpack:"name"`
	Points []SpeedPoint `json:"points" msgpack:"points"`
}

// SpeedPoint is a speed sample. T is absolute time in seconds.
type SpeedPoint struct {
	T float64 `json:"t" msgpack:"t"`
	V float64 `json:"v" msgpack:"v"`
}

// STGraph is one station-time decision graph.
type STGraph struct {
	Name         string       `json:"name" msgpack:"name"`
	SpeedProfile []STPoint    `json:"speedProfile,omitempty" msgpack:"speedProfile,omitempty"`
	Boundaries   []STBoundary `json:"boundaries,omitempty" msgpack:"boundaries,omitempty"`
}

// STPoint is a (time, station) sample of an ST speed profile.
type STPoint struct {
	T float64 `json:"t" msgpack:"t"`
	S float64 `json:"s" msgpack:"s"`
}

// STBoundary is the predicted occupancy band of one obstacle: the
// obstacle blocks stations [Lower, Upper] during [T0, T1].
type STBoundary struct {
	ID    string  `json:"id" msgpack:"id"`
	T0    float64 `json:"t0" msgpack:"t0"`
	T1    float64 `json:"t1" msgpack:"t1"`
	Lower float64 `json:"lower" msgpack:"lower"`
	Upper float64 `json:"upper" msgpack:"upper"`
}

// Obstacles returns the boundaries of all ST graphs in graph order.
func (t *Trajectory) Obstacles() []STBoundary {
	if t == nil {
		return nil
	}
	var out []STBoundary
	for _, g := range t.STGraphs {
		out = append(out, g.Boundaries...)
	}
	return out
}
