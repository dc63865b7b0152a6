// Package tiling grows an aperiodic tiling of golden triangles and golden
// gnomons one triangle at a time.
//
// Every edge direction is quantised to a multiple of 36° (an Angle). Each
// vertex remembers the two edges bounding the part of its neighbourhood no
// triangle covers yet; growing the tiling means picking an open vertex and
// narrowing that sector by one unit from both ends of an edge.
package tiling

import (
	"image/color"
	"math"

	"github.com/jbeda/geom"

	"github.com/talgya/goldgrow/internal/phi"
)

// VertexID is a stable arena index. IDs are assigned in creation order and
// never reused.
type VertexID int

// Angle is an edge direction in units of 36°, measured counter-clockwise
// from the world x-axis. Valid values are 0..9.
type Angle uint8

// Reverse flips the direction by 180°.
func (a Angle) Reverse() Angle {
	return (a + 5) % phi.Directions
}

// Radians returns the direction as an angle in radians.
func (a Angle) Radians() float64 {
	return float64(a) * phi.AngleUnit
}

// Degrees returns the direction in degrees (0, 36, ... 324).
func (a Angle) Degrees() float64 {
	return float64(a) * phi.ApexAngle
}

// Edge is a directed reference from a vertex to one of its neighbours.
type Edge struct {
	To    VertexID `json:"to"`
	Angle Angle    `json:"angle"`
}

// Vertex is a point of the tiling. The sector swept counter-clockwise from
// Right.Angle to Left.Angle is not covered by any triangle yet; everything
// else around the vertex is.
type Vertex struct {
	ID    VertexID   `json:"id"`
	Pos   geom.Coord `json:"pos"`
	Right Edge       `json:"right"`
	Left  Edge       `json:"left"`
}

// UncoveredSector returns the open sector size in angle units (0..9).
// Zero means the vertex is fully surrounded.
func (v Vertex) UncoveredSector() int {
	return (int(v.Right.Angle) - int(v.Left.Angle) + phi.Directions) % phi.Directions
}

// Open reports whether any triangle can still attach at the vertex.
func (v Vertex) Open() bool {
	return v.UncoveredSector() != 0
}

// Triangle is an ordered triple of vertices plus its display colours.
// Colours are owned by whoever renders the tiling.
type Triangle struct {
	ID       int         `json:"id"`
	Vertices [3]VertexID `json:"vertices"`
	Fill     color.RGBA  `json:"fill"`
	Stroke   color.RGBA  `json:"stroke"`
}

// Centroid returns the mean of three points.
func Centroid(p [3]geom.Coord) geom.Coord {
	return geom.Coord{
		X: (p[0].X + p[1].X + p[2].X) / 3,
		Y: (p[0].Y + p[1].Y + p[2].Y) / 3,
	}
}

// polar returns the point at distance length from origin along a, with the
// y axis pointing down as on a raster surface.
func polar(origin geom.Coord, length float64, a Angle) geom.Coord {
	return geom.Coord{
		X: origin.X + length*math.Cos(a.Radians()),
		Y: origin.Y - length*math.Sin(a.Radians()),
	}
}
