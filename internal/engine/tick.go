// Package engine provides the step loop that grows the tiling over time.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/goldgrow/internal/tiling"
)

// Stepper advances the tiling by one triangle.
type Stepper interface {
	Step() (tiling.TriangleAdded, error)
}

// Engine drives a Stepper forward.
type Engine struct {
	Interval    time.Duration // Base step interval at speed 1 (0 = as fast as possible)
	MaxSteps    uint64        // Stop after this many steps (0 = forever)
	SampleEvery uint64        // OnSample cadence in steps (0 = never)
	FrameEvery  uint64        // OnFrame cadence in steps (0 = never)

	// Callbacks, populated during setup.
	OnStep   func(step uint64, added tiling.TriangleAdded) // Every step
	OnSample func(step uint64)                             // Every SampleEvery steps
	OnFrame  func(step uint64)                             // Every FrameEvery steps
	OnHalt   func(step uint64)                             // Once, when growth halts

	stepper Stepper
	step    atomic.Uint64 // Steps taken by this engine (monotonic)
	speed   atomic.Uint64 // float64 bits; 1.0 = nominal, 0 = paused
	running atomic.Bool
	halted  atomic.Bool
	stop    chan struct{}
}

// NewEngine creates an engine at speed 1 with a 10ms interval.
func NewEngine(s Stepper) *Engine {
	e := &Engine{
		Interval: 10 * time.Millisecond,
		stepper:  s,
		stop:     make(chan struct{}, 1),
	}
	e.SetSpeed(1)
	return e
}

// Step returns the number of steps taken so far.
func (e *Engine) Step() uint64 { return e.step.Load() }

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed changes the speed multiplier. Negative values pause.
func (e *Engine) SetSpeed(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	e.speed.Store(math.Float64bits(v))
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool { return e.running.Load() }

// Halted reports whether the tiling stopped growing.
func (e *Engine) Halted() bool { return e.halted.Load() }

// Run loops until ctx is done, Stop is called, MaxSteps is reached or the
// tiling halts. Halting is not an error.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("engine started", "step", e.Step(), "speed", e.Speed(), "interval", e.Interval)

	for {
		if e.MaxSteps > 0 && e.Step() >= e.MaxSteps {
			slog.Info("engine reached step limit", "steps", humanize.Comma(int64(e.Step())))
			return nil
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			if !e.wait(ctx, 100*time.Millisecond) {
				return nil
			}
			continue
		}

		start := time.Now()
		halted, err := e.advance()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}

		// Sleep for the remainder of the interval, adjusted for speed.
		target := time.Duration(float64(e.Interval) / speed)
		delay := target - time.Since(start)
		if delay < 0 {
			delay = 0
		}
		if !e.wait(ctx, delay) {
			return nil
		}
	}
}

// Stop makes Run return after the current step.
func (e *Engine) Stop() {
	select {
	case e.stop <- struct{}{}:
	default:
	}
}

// advance performs one step and fires the callbacks due for it.
func (e *Engine) advance() (halted bool, err error) {
	added, err := e.stepper.Step()
	if errors.Is(err, tiling.ErrGrowthHalted) {
		e.halted.Store(true)
		slog.Info("tiling halted: no open vertex can grow", "steps", humanize.Comma(int64(e.Step())))
		if e.OnHalt != nil {
			e.OnHalt(e.Step())
		}
		return true, nil
	}
	if err != nil {
		slog.Error("step failed", "step", e.Step()+1, "error", err)
		return false, err
	}

	n := e.step.Add(1)

	if e.OnStep != nil {
		e.OnStep(n, added)
	}
	if e.SampleEvery > 0 && n%e.SampleEvery == 0 && e.OnSample != nil {
		e.OnSample(n)
	}
	if e.FrameEvery > 0 && n%e.FrameEvery == 0 && e.OnFrame != nil {
		e.OnFrame(n)
	}
	return false, nil
}

// wait sleeps for d, returning false if the loop should exit instead.
func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-e.stop:
			return false
		default:
			return true
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-e.stop:
		return false
	case <-t.C:
		return true
	}
}
