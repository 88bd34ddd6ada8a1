// pkg/core/types.go
package core

// Position2D is a planar map position.
type Position2D struct {
	X float64 `json:"x" msgpack:"x"` // easting
	Y float64 `json:"y" msgpack:"y"` // northing
}
