// pkg/core/pose.go
package core

// Pose is the latest vehicle state published on the localization channel.
type Pose struct {
	Timestamp float64    `json:"timestamp" msgpack:"timestamp"` // seconds
	Position  Position2D `json:"position" msgpack:"position"`
	Heading   float64    `json:"heading" msgpack:"heading"` // radians, counter-clockwise from +x
	Length    float64    `json:"length" msgpack:"length"`   // footprint extent along the heading
	Width     float64    `json:"width" msgpack:"width"`
}
