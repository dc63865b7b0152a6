package tiling

import (
	"image/color"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/jbeda/geom"
	"github.com/pkg/errors"

	"github.com/talgya/goldgrow/internal/phi"
)

// Fixed colours: the seed triangle's fill and the outline of every triangle.
var (
	SeedFill = color.RGBA{R: 200, G: 140, B: 50, A: 255}
	Stroke   = color.RGBA{R: 200, G: 90, B: 30, A: 255}
)

// Graph owns the vertex arena, the triangle list and the set of open
// vertices. It is not safe for concurrent use.
type Graph struct {
	vertices  []Vertex
	triangles []Triangle

	// Open vertex IDs in insertion order. A vertex is a member iff its
	// uncovered sector is nonzero.
	open *linkedhashset.Set
}

// NewGraph builds the seed triangle described by cfg.
func NewGraph(cfg Config) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		vertices: cfg.seedVertices(),
		open:     linkedhashset.New(),
	}
	for _, v := range g.vertices {
		g.open.Add(v.ID)
	}
	g.AppendTriangle([3]VertexID{0, 1, 2}, SeedFill, Stroke)
	return g, nil
}

// Vertex returns the vertex with the given ID.
func (g *Graph) Vertex(id VertexID) (Vertex, bool) {
	if !g.valid(id) {
		return Vertex{}, false
	}
	return g.vertices[id], true
}

// Position returns the position of a vertex. The ID must be valid.
func (g *Graph) Position(id VertexID) geom.Coord {
	return g.vertices[id].Pos
}

// UncoveredSector returns the open sector of a vertex in angle units, or 0
// for unknown IDs.
func (g *Graph) UncoveredSector(id VertexID) int {
	if !g.valid(id) {
		return 0
	}
	return g.vertices[id].UncoveredSector()
}

// IsOpen reports whether id is in the open set.
func (g *Graph) IsOpen(id VertexID) bool {
	return g.open.Contains(id)
}

// NumVertices returns the number of vertices ever created.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// NumTriangles returns the number of triangles placed.
func (g *Graph) NumTriangles() int { return len(g.triangles) }

// NumOpen returns the size of the open set.
func (g *Graph) NumOpen() int { return g.open.Size() }

// OpenVertices returns the open set in insertion order.
func (g *Graph) OpenVertices() []VertexID {
	ids := make([]VertexID, 0, g.open.Size())
	it := g.open.Iterator()
	for it.Next() {
		ids = append(ids, it.Value().(VertexID))
	}
	return ids
}

// Vertices returns a copy of every vertex in ID order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Triangles returns a copy of every triangle in insertion order.
func (g *Graph) Triangles() []Triangle {
	return g.TrianglesSince(0)
}

// TrianglesSince returns a copy of the triangles with ID >= from.
func (g *Graph) TrianglesSince(from int) []Triangle {
	if from < 0 {
		from = 0
	}
	if from >= len(g.triangles) {
		return []Triangle{}
	}
	out := make([]Triangle, len(g.triangles)-from)
	copy(out, g.triangles[from:])
	return out
}

// Corners returns the positions of a triangle's vertices.
func (g *Graph) Corners(t Triangle) [3]geom.Coord {
	return [3]geom.Coord{
		g.vertices[t.Vertices[0]].Pos,
		g.vertices[t.Vertices[1]].Pos,
		g.vertices[t.Vertices[2]].Pos,
	}
}

// Bounds returns the smallest rectangle containing every vertex.
func (g *Graph) Bounds() geom.Rect {
	return bounds(g.vertices)
}

// Attach inserts a new vertex at pos and rewires the boundary so that the
// triangle (u, v, w) covers the wedge next to edge u-v. v must be u's
// current left neighbour and both must be open; otherwise the graph is left
// untouched and an error wrapping ErrInvalidTopology is returned.
func (g *Graph) Attach(u, v VertexID, pos geom.Coord, uw, vw Angle) (VertexID, error) {
	if !g.valid(u) || !g.valid(v) {
		return 0, errors.Wrapf(ErrInvalidTopology, "attach v%d-v%d: unknown vertex", u, v)
	}
	if left := g.vertices[u].Left.To; left != v {
		return 0, errors.Wrapf(ErrInvalidTopology, "attach v%d-v%d: left neighbour of v%d is v%d", u, v, u, left)
	}
	if !g.IsOpen(u) || !g.IsOpen(v) {
		return 0, errors.Wrapf(ErrInvalidTopology, "attach v%d-v%d: closed vertex", u, v)
	}
	if uw >= phi.Directions || vw >= phi.Directions {
		return 0, errors.Wrapf(ErrInvalidTopology, "attach v%d-v%d: angle out of range (%d, %d)", u, v, uw, vw)
	}

	w := VertexID(len(g.vertices))
	g.vertices = append(g.vertices, Vertex{
		ID:    w,
		Pos:   pos,
		Right: Edge{To: u, Angle: uw.Reverse()},
		Left:  Edge{To: v, Angle: vw.Reverse()},
	})
	g.open.Add(w)

	g.vertices[u].Left = Edge{To: w, Angle: uw}
	g.refresh(u)
	g.vertices[v].Right = Edge{To: w, Angle: vw}
	g.refresh(v)

	return w, nil
}

// AppendTriangle records a triangle and returns it with its ID assigned.
func (g *Graph) AppendTriangle(vs [3]VertexID, fill, stroke color.RGBA) Triangle {
	t := Triangle{
		ID:       len(g.triangles),
		Vertices: vs,
		Fill:     fill,
		Stroke:   stroke,
	}
	g.triangles = append(g.triangles, t)
	return t
}

// Snapshot copies the current state for readers outside the growth loop.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		Vertices:  g.Vertices(),
		Triangles: g.Triangles(),
		Open:      g.NumOpen(),
	}
}

// refresh drops a vertex from the open set once its sector is closed.
func (g *Graph) refresh(id VertexID) {
	if !g.vertices[id].Open() {
		g.open.Remove(id)
	}
}

func (g *Graph) valid(id VertexID) bool {
	return id >= 0 && int(id) < len(g.vertices)
}

func bounds(vs []Vertex) geom.Rect {
	if len(vs) == 0 {
		return geom.Rect{}
	}
	r := geom.Rect{Min: vs[0].Pos, Max: vs[0].Pos}
	for _, v := range vs[1:] {
		r.ExpandToContainCoord(v.Pos)
	}
	return r
}
