// Simulation owns the growing tiling and serialises access to it.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/talgya/goldgrow/internal/tiling"
)

// Simulation wraps a Grower so that one goroutine can step it while others
// read snapshots. Steps are strictly sequential.
type Simulation struct {
	mu     sync.RWMutex
	grower *tiling.Grower
	graph  *tiling.Graph

	steps     uint64
	halted    bool
	startedAt time.Time
	lastStep  time.Time
}

// Stats summarises the tiling.
type Stats struct {
	Steps     uint64    `json:"steps"`
	Vertices  int       `json:"vertices"`
	Triangles int       `json:"triangles"`
	Open      int       `json:"open"`
	Closed    int       `json:"closed"`
	Halted    bool      `json:"halted"`
	StartedAt time.Time `json:"started_at"`
	LastStep  time.Time `json:"last_step"`
}

// NewSimulation wraps gr. The simulation takes ownership of the grower and
// its graph; nothing else may mutate them.
func NewSimulation(gr *tiling.Grower) *Simulation {
	return &Simulation{
		grower:    gr,
		graph:     gr.Graph(),
		startedAt: time.Now(),
	}
}

// Step grows one triangle. Once growth has halted every later call returns
// tiling.ErrGrowthHalted without touching the graph.
func (s *Simulation) Step() (tiling.TriangleAdded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return tiling.TriangleAdded{}, tiling.ErrGrowthHalted
	}

	added, err := s.grower.Grow()
	if errors.Is(err, tiling.ErrGrowthHalted) {
		s.halted = true
		return added, err
	}
	if err != nil {
		return added, err
	}

	s.steps++
	s.lastStep = time.Now()
	return added, nil
}

// Halted reports whether growth has stopped for good.
func (s *Simulation) Halted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.halted
}

// Snapshot returns a detached copy of the tiling.
func (s *Simulation) Snapshot() tiling.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Snapshot()
}

// Vertices returns a copy of all vertices.
func (s *Simulation) Vertices() []tiling.Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Vertices()
}

// TrianglesSince returns a copy of the triangles with ID >= from.
func (s *Simulation) TrianglesSince(from int) []tiling.Triangle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.TrianglesSince(from)
}

// Stats returns current counters.
func (s *Simulation) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := s.graph.NumOpen()
	return Stats{
		Steps:     s.steps,
		Vertices:  s.graph.NumVertices(),
		Triangles: s.graph.NumTriangles(),
		Open:      open,
		Closed:    s.graph.NumVertices() - open,
		Halted:    s.halted,
		StartedAt: s.startedAt,
		LastStep:  s.lastStep,
	}
}
