package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/talgya/goldgrow/internal/palette"
	"github.com/talgya/goldgrow/internal/tiling"
)

// scriptedStepper succeeds n times, then returns err forever.
type scriptedStepper struct {
	n     int
	calls int
	err   error
}

func (s *scriptedStepper) Step() (tiling.TriangleAdded, error) {
	s.calls++
	if s.calls > s.n {
		return tiling.TriangleAdded{}, s.err
	}
	return tiling.TriangleAdded{ID: s.calls}, nil
}

func newSimulation(t *testing.T, seed int64) *Simulation {
	t.Helper()
	g, err := tiling.NewGraph(tiling.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(seed))
	return NewSimulation(tiling.NewGrower(g, tiling.NewRandomSelector(rng), palette.NewRandom(rng)))
}

func TestEngineStopsAtMaxSteps(t *testing.T) {
	sim := newSimulation(t, 1)
	e := NewEngine(sim)
	e.Interval = 0
	e.MaxSteps = 120
	e.SampleEvery = 10
	e.FrameEvery = 50

	var steps, samples, frames int
	e.OnStep = func(step uint64, added tiling.TriangleAdded) {
		steps++
		if added.ID != int(step) {
			t.Errorf("step %d added triangle %d", step, added.ID)
		}
	}
	e.OnSample = func(uint64) { samples++ }
	e.OnFrame = func(uint64) { frames++ }

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if steps != 120 || samples != 12 || frames != 2 {
		t.Errorf("callbacks = (%d steps, %d samples, %d frames), want (120, 12, 2)", steps, samples, frames)
	}
	if st := sim.Stats(); st.Steps != 120 || st.Triangles != 121 || st.Vertices != 123 {
		t.Errorf("Stats() = %+v", st)
	}
	if e.Running() {
		t.Error("Running() = true after Run returned")
	}
}

func TestEngineHaltIsNotAnError(t *testing.T) {
	st := &scriptedStepper{n: 5, err: tiling.ErrGrowthHalted}
	e := NewEngine(st)
	e.Interval = 0

	var haltedAt uint64
	e.OnHalt = func(step uint64) { haltedAt = step }

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil on halt", err)
	}
	if !e.Halted() || haltedAt != 5 || e.Step() != 5 {
		t.Errorf("halted=%v at %d, step=%d; want halted at 5", e.Halted(), haltedAt, e.Step())
	}
}

func TestEngineSurfacesStepErrors(t *testing.T) {
	boom := errors.New("boom")
	e := NewEngine(&scriptedStepper{n: 2, err: boom})
	e.Interval = 0

	if err := e.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if e.Halted() {
		t.Error("a failed step marked the engine halted")
	}
}

func TestEngineStopsOnContext(t *testing.T) {
	e := NewEngine(&scriptedStepper{n: 1 << 30})
	e.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after context cancel")
	}
	if e.Step() == 0 {
		t.Error("engine took no steps before cancel")
	}
}

func TestEngineStopAndPause(t *testing.T) {
	st := &scriptedStepper{n: 1 << 30}
	e := NewEngine(st)
	e.SetSpeed(0)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	e.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Stop")
	}
	if e.Step() != 0 {
		t.Errorf("paused engine took %d steps", e.Step())
	}

	e.SetSpeed(-3)
	if e.Speed() != 0 {
		t.Errorf("SetSpeed(-3) left speed %v, want 0", e.Speed())
	}
}

func TestSimulationStatsAfterClosing(t *testing.T) {
	g, err := tiling.NewGraph(tiling.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	// A selector that always grows from v0 closes it after 8 steps; v1 then
	// has a closed left neighbour, and the rest keep growing.
	sim := NewSimulation(tiling.NewGrower(g, tiling.SelectorFunc(func(c []tiling.VertexID) tiling.VertexID {
		return c[0]
	}), nil))

	for i := 0; i < 50; i++ {
		if _, err := sim.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	st := sim.Stats()
	if st.Steps != 50 || st.Closed == 0 || st.Open+st.Closed != st.Vertices {
		t.Errorf("Stats() = %+v", st)
	}
	if sim.Halted() {
		t.Error("Halted() = true while vertices are still open")
	}
}

func TestSimulationConcurrentReads(t *testing.T) {
	sim := newSimulation(t, 9)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := sim.Snapshot()
				for _, tri := range snap.Triangles {
					for _, id := range tri.Vertices {
						if int(id) >= len(snap.Vertices) {
							t.Errorf("snapshot triangle %d references missing v%d", tri.ID, id)
							return
						}
					}
				}
				_ = sim.TrianglesSince(len(snap.Triangles) - 1)
			}
		}()
	}

	for i := 0; i < 300; i++ {
		if _, err := sim.Step(); err != nil {
			break
		}
	}
	close(stop)
	wg.Wait()

	if got := len(sim.Vertices()); got != sim.Stats().Vertices {
		t.Errorf("Vertices() = %d entries, Stats().Vertices = %d", got, sim.Stats().Vertices)
	}
}
