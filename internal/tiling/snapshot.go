package tiling

import "github.com/jbeda/geom"

// Snapshot is a detached copy of the tiling. Renderers and the HTTP view
// read snapshots so the growth loop never shares its slices.
type Snapshot struct {
	Vertices  []Vertex   `json:"vertices"`
	Triangles []Triangle `json:"triangles"`
	Open      int        `json:"open"`
}

// Corners returns the positions of a triangle's vertices.
func (s Snapshot) Corners(t Triangle) [3]geom.Coord {
	return [3]geom.Coord{
		s.Vertices[t.Vertices[0]].Pos,
		s.Vertices[t.Vertices[1]].Pos,
		s.Vertices[t.Vertices[2]].Pos,
	}
}

// Bounds returns the smallest rectangle containing every vertex.
func (s Snapshot) Bounds() geom.Rect {
	return bounds(s.Vertices)
}
