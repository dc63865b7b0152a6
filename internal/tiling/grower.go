package tiling

import (
	"fmt"
	"math/rand"

	"github.com/jbeda/geom"

	"github.com/talgya/goldgrow/internal/palette"
	"github.com/talgya/goldgrow/internal/phi"
)

// Selector picks the vertex the next triangle grows from. candidates is
// never empty and is ordered by when each vertex entered the open set.
type Selector interface {
	Select(candidates []VertexID) VertexID
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(candidates []VertexID) VertexID

// Select implements Selector.
func (f SelectorFunc) Select(candidates []VertexID) VertexID { return f(candidates) }

// RandomSelector draws uniformly from the candidates.
type RandomSelector struct {
	rng *rand.Rand
}

// NewRandomSelector returns a selector drawing from rng.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	return &RandomSelector{rng: rng}
}

// Select implements Selector.
func (s *RandomSelector) Select(candidates []VertexID) VertexID {
	return candidates[s.rng.Intn(len(candidates))]
}

// TriangleAdded describes the result of one growth step.
type TriangleAdded struct {
	ID        int           `json:"id"`
	Vertices  [3]VertexID   `json:"vertices"`
	Positions [3]geom.Coord `json:"positions"`
}

// Grower places one triangle per call to Grow. It mutates its Graph and is
// not safe for concurrent use.
type Grower struct {
	graph    *Graph
	selector Selector
	palette  palette.Palette
}

// NewGrower returns a grower over g. A nil palette fills every triangle
// with SeedFill.
func NewGrower(g *Graph, sel Selector, pal palette.Palette) *Grower {
	if pal == nil {
		pal = palette.Fixed(SeedFill)
	}
	return &Grower{graph: g, selector: sel, palette: pal}
}

// Graph returns the graph being grown.
func (gr *Grower) Graph() *Graph { return gr.graph }

// Eligible returns the open vertices that can take a triangle now: those
// whose left neighbour is open too. A vertex that closed stays on the
// boundary cycle, so its right neighbour waits until it has another
// open neighbour.
func (gr *Grower) Eligible() []VertexID {
	open := gr.graph.OpenVertices()
	out := open[:0]
	for _, id := range open {
		if gr.graph.IsOpen(gr.graph.vertices[id].Left.To) {
			out = append(out, id)
		}
	}
	return out
}

// Grow adds one triangle. It returns ErrGrowthHalted, leaving the graph
// unchanged, when no vertex is eligible.
func (gr *Grower) Grow() (TriangleAdded, error) {
	candidates := gr.Eligible()
	if len(candidates) == 0 {
		return TriangleAdded{}, ErrGrowthHalted
	}

	u := gr.selector.Select(candidates)
	if !gr.graph.valid(u) {
		return TriangleAdded{}, fmt.Errorf("%w: selector returned unknown vertex v%d", ErrInvalidTopology, u)
	}
	uv := gr.graph.vertices[u]
	v := uv.Left.To
	vv := gr.graph.vertices[v]

	uw := (uv.Left.Angle + 1) % phi.Directions
	vw := (vv.Right.Angle + 9) % phi.Directions
	length := uv.Pos.DistanceFrom(vv.Pos) * phi.Matter
	pos := polar(uv.Pos, length, uw)

	w, err := gr.graph.Attach(u, v, pos, uw, vw)
	if err != nil {
		return TriangleAdded{}, err
	}

	corners := [3]geom.Coord{uv.Pos, vv.Pos, pos}
	t := gr.graph.AppendTriangle([3]VertexID{u, v, w}, gr.palette.Fill(Centroid(corners)), Stroke)

	return TriangleAdded{
		ID:        t.ID,
		Vertices:  t.Vertices,
		Positions: corners,
	}, nil
}
