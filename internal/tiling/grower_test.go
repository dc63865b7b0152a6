package tiling

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/talgya/goldgrow/internal/palette"
	"github.com/talgya/goldgrow/internal/phi"
)

func newGrower(t *testing.T, seed int64) *Grower {
	t.Helper()
	g := mustGraph(t, DefaultConfig())
	rng := rand.New(rand.NewSource(seed))
	return NewGrower(g, NewRandomSelector(rng), palette.NewRandom(rng))
}

func forceVertex(id VertexID) Selector {
	return SelectorFunc(func(candidates []VertexID) VertexID {
		for _, c := range candidates {
			if c == id {
				return c
			}
		}
		return -1
	})
}

func TestFirstStep(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		gr := newGrower(t, seed)
		added, err := gr.Grow()
		if err != nil {
			t.Fatalf("seed %d: Grow() error = %v", seed, err)
		}
		g := gr.Graph()
		if n := g.NumOpen(); n != 3 && n != 4 {
			t.Errorf("seed %d: open set size = %d, want 3 or 4", seed, n)
		}
		if g.NumTriangles() != 2 {
			t.Errorf("seed %d: NumTriangles() = %d, want 2", seed, g.NumTriangles())
		}
		if added.ID != 1 || added.Vertices[2] != 3 {
			t.Errorf("seed %d: TriangleAdded = %+v, want ID 1 with new vertex v3", seed, added)
		}
	}
}

func TestGrowNarrowsBothEndsByOne(t *testing.T) {
	gr := newGrower(t, 1)
	g := gr.Graph()

	for step := 0; step < 3000; step++ {
		before := g.Vertices()
		added, err := gr.Grow()
		if errors.Is(err, ErrGrowthHalted) {
			t.Logf("halted after %d steps", step)
			break
		}
		if err != nil {
			t.Fatalf("step %d: Grow() error = %v", step, err)
		}

		u, v, w := added.Vertices[0], added.Vertices[1], added.Vertices[2]
		if got, want := g.UncoveredSector(u), before[u].UncoveredSector()-1; got != want {
			t.Fatalf("step %d: sector(u=v%d) = %d, want %d", step, u, got, want)
		}
		if got, want := g.UncoveredSector(v), before[v].UncoveredSector()-1; got != want {
			t.Fatalf("step %d: sector(v=v%d) = %d, want %d", step, v, got, want)
		}
		if int(w) != len(before) {
			t.Fatalf("step %d: new vertex v%d, want v%d", step, w, len(before))
		}

		// Everything else is untouched.
		after := g.Vertices()
		for i := range before {
			id := VertexID(i)
			if id != u && id != v && before[i] != after[i] {
				t.Fatalf("step %d: bystander v%d changed", step, id)
			}
		}

		assertOpenSetConsistent(t, g)
	}
}

func assertOpenSetConsistent(t *testing.T, g *Graph) {
	t.Helper()
	for _, v := range g.Vertices() {
		s := v.UncoveredSector()
		if s < 0 || s > 9 {
			t.Fatalf("v%d sector %d out of range", v.ID, s)
		}
		if g.IsOpen(v.ID) != (s != 0) {
			t.Fatalf("v%d sector %d but open=%v", v.ID, s, g.IsOpen(v.ID))
		}
	}
	if len(g.OpenVertices()) != g.NumOpen() {
		t.Fatalf("OpenVertices() has %d entries, NumOpen() = %d", len(g.OpenVertices()), g.NumOpen())
	}
}

func TestEdgesStayAligned(t *testing.T) {
	gr := newGrower(t, 99)
	g := gr.Graph()
	for i := 0; i < 300; i++ {
		if _, err := gr.Grow(); err != nil {
			break
		}
	}

	for _, v := range g.Vertices() {
		assertEdgeDirection(t, g, v.ID, v.Right)
		assertEdgeDirection(t, g, v.ID, v.Left)
	}

	// Every grown triangle is a golden gnomon on its base u-v.
	for _, tri := range g.Triangles()[1:] {
		c := g.Corners(tri)
		base := c[0].DistanceFrom(c[1])
		uw, vw := c[0].DistanceFrom(c[2]), c[1].DistanceFrom(c[2])
		if !almostEqual(uw*phi.Being, base) || !almostEqual(vw*phi.Being, base) {
			t.Fatalf("triangle %d: legs (%v, %v), base %v", tri.ID, uw, vw, base)
		}
	}
}

func TestNoDuplicateWedge(t *testing.T) {
	gr := newGrower(t, 5)
	g := gr.Graph()
	for i := 0; i < 1000; i++ {
		if _, err := gr.Grow(); err != nil {
			break
		}
	}

	type edge [2]VertexID
	apexes := make(map[edge][]VertexID)
	seen := make(map[[3]VertexID]int)
	for _, tri := range g.Triangles() {
		key := tri.Vertices
		sort.Slice(key[:], func(i, j int) bool { return key[i] < key[j] })
		if prev, ok := seen[key]; ok {
			t.Fatalf("triangles %d and %d cover the same vertices %v", prev, tri.ID, key)
		}
		seen[key] = tri.ID

		for i := 0; i < 3; i++ {
			a, b, apex := tri.Vertices[i], tri.Vertices[(i+1)%3], tri.Vertices[(i+2)%3]
			if a > b {
				a, b = b, a
			}
			for _, other := range apexes[edge{a, b}] {
				if other == apex {
					t.Fatalf("edge v%d-v%d has two triangles with apex v%d", a, b, apex)
				}
			}
			apexes[edge{a, b}] = append(apexes[edge{a, b}], apex)
		}
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	gr := newGrower(t, 3)
	for i := 0; i < 50; i++ {
		if _, err := gr.Grow(); err != nil {
			t.Fatal(err)
		}
	}
	g := gr.Graph()

	t1, t2 := g.Triangles(), g.Triangles()
	v1, v2 := g.Vertices(), g.Vertices()
	if len(t1) != len(t2) || len(v1) != len(v2) {
		t.Fatal("repeated reads differ in length")
	}
	for i := range t1 {
		if t1[i] != t2[i] {
			t.Errorf("triangle %d differs between reads", i)
		}
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Errorf("vertex %d differs between reads", i)
		}
	}
}

func TestDeterministicForSeed(t *testing.T) {
	a, b := newGrower(t, 2024), newGrower(t, 2024)
	for i := 0; i < 400; i++ {
		_, errA := a.Grow()
		_, errB := b.Grow()
		if (errA == nil) != (errB == nil) {
			t.Fatalf("step %d: errors diverged: %v vs %v", i, errA, errB)
		}
	}

	va, vb := a.Graph().Vertices(), b.Graph().Vertices()
	if len(va) != len(vb) {
		t.Fatalf("vertex counts %d vs %d", len(va), len(vb))
	}
	for i := range va {
		if math.Float64bits(va[i].Pos.X) != math.Float64bits(vb[i].Pos.X) ||
			math.Float64bits(va[i].Pos.Y) != math.Float64bits(vb[i].Pos.Y) ||
			va[i] != vb[i] {
			t.Fatalf("vertex %d differs: %+v vs %+v", i, va[i], vb[i])
		}
	}
	ta, tb := a.Graph().Triangles(), b.Graph().Triangles()
	for i := range ta {
		if ta[i] != tb[i] {
			t.Fatalf("triangle %d differs: %+v vs %+v", i, ta[i], tb[i])
		}
	}

	c := newGrower(t, 2025)
	for i := 0; i < 400; i++ {
		c.Grow()
	}
	if c.Graph().Vertices()[10] == va[10] {
		t.Error("different seeds produced the same tiling")
	}
}

func TestForcedSelectionClosesVertex(t *testing.T) {
	for _, id := range []VertexID{0, 1, 2} {
		g := mustGraph(t, DefaultConfig())
		gr := NewGrower(g, forceVertex(id), nil)
		initial := g.UncoveredSector(id)

		for i := 0; i < initial; i++ {
			if !g.IsOpen(id) {
				t.Fatalf("v%d closed after %d steps, want %d", id, i, initial)
			}
			if _, err := gr.Grow(); err != nil {
				t.Fatalf("v%d step %d: Grow() error = %v", id, i, err)
			}
		}

		if g.UncoveredSector(id) != 0 {
			t.Errorf("v%d sector = %d after %d steps, want 0", id, g.UncoveredSector(id), initial)
		}
		if g.IsOpen(id) {
			t.Errorf("v%d still open after closing", id)
		}
		for _, open := range g.OpenVertices() {
			if open == id {
				t.Errorf("OpenVertices() still lists v%d", id)
			}
		}
		if g.NumTriangles() != initial+1 {
			t.Errorf("NumTriangles() = %d, want %d", g.NumTriangles(), initial+1)
		}
	}
}

func TestForcedSelectionOfIneligibleVertex(t *testing.T) {
	g := mustGraph(t, DefaultConfig())
	gr := NewGrower(g, forceVertex(0), nil)
	for i := 0; i < 8; i++ {
		if _, err := gr.Grow(); err != nil {
			t.Fatal(err)
		}
	}

	// v0 is closed; v1's left neighbour is v0, so v1 is not eligible.
	for _, id := range gr.Eligible() {
		if id == 0 || id == 1 {
			t.Errorf("Eligible() lists v%d", id)
		}
	}

	gr.selector = forceVertex(1)
	_, err := gr.Grow()
	if !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("Grow() with unknown selection error = %v, want ErrInvalidTopology", err)
	}
	if g.NumTriangles() != 9 {
		t.Errorf("NumTriangles() = %d after rejected step, want 9", g.NumTriangles())
	}
}

func TestGrowthHalted(t *testing.T) {
	g := closedGraph()
	gr := NewGrower(g, NewRandomSelector(rand.New(rand.NewSource(1))), nil)

	for i := 0; i < 3; i++ {
		_, err := gr.Grow()
		if !errors.Is(err, ErrGrowthHalted) {
			t.Fatalf("Grow() error = %v, want ErrGrowthHalted", err)
		}
	}
	if g.NumVertices() != 3 || g.NumTriangles() != 1 {
		t.Errorf("counts changed while halted: %d vertices, %d triangles", g.NumVertices(), g.NumTriangles())
	}
}

func TestNilPaletteUsesSeedFill(t *testing.T) {
	g := mustGraph(t, DefaultConfig())
	gr := NewGrower(g, forceVertex(2), nil)
	if _, err := gr.Grow(); err != nil {
		t.Fatal(err)
	}
	tri := g.Triangles()[1]
	if tri.Fill != SeedFill || tri.Stroke != Stroke {
		t.Errorf("triangle colours = (%v, %v), want (%v, %v)", tri.Fill, tri.Stroke, SeedFill, Stroke)
	}
}
