// Command goldgrow grows a golden-triangle tiling outward from a single seed
// triangle, optionally writing frames, serving a live view and recording
// the run in a SQLite ledger.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/goldgrow/internal/api"
	"github.com/talgya/goldgrow/internal/engine"
	"github.com/talgya/goldgrow/internal/entropy"
	"github.com/talgya/goldgrow/internal/ledger"
	"github.com/talgya/goldgrow/internal/palette"
	"github.com/talgya/goldgrow/internal/phi"
	"github.com/talgya/goldgrow/internal/render"
	"github.com/talgya/goldgrow/internal/tiling"
)

// Independent random streams derived from the run seed.
const (
	streamSelector = iota
	streamPalette
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "goldgrow:", err)
		os.Exit(2)
	}

	setupLogging(cfg)
	if err := run(cfg); err != nil {
		slog.Error("goldgrow failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg config) error {
	seed := entropy.Resolve(cfg.Seed)
	slog.Info("goldgrow starting",
		"seed", seed,
		"size", cfg.Tiling.InitialSize,
		"origin", fmt.Sprintf("(%g, %g)", cfg.Tiling.Origin.X, cfg.Tiling.Origin.Y),
		"phi", fmt.Sprintf("%.5f", phi.Phi),
	)

	// ── Tiling ────────────────────────────────────────────────────────
	graph, err := tiling.NewGraph(cfg.Tiling)
	if err != nil {
		return fmt.Errorf("seed tiling: %w", err)
	}
	palSeed := entropy.Derive(seed, streamPalette)
	pal, err := palette.ByName(cfg.Palette, palSeed, entropy.NewRand(palSeed))
	if err != nil {
		return err
	}
	selector := tiling.NewRandomSelector(entropy.NewRand(entropy.Derive(seed, streamSelector)))
	sim := engine.NewSimulation(tiling.NewGrower(graph, selector, pal))

	// ── Frames ────────────────────────────────────────────────────────
	renderer, err := cfg.renderer()
	if err != nil {
		return err
	}
	if renderer != nil {
		if err := os.MkdirAll(filepath.Dir(cfg.Out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	writeFrame := func() {
		if renderer == nil {
			return
		}
		if err := render.WriteFile(cfg.Out, renderer, sim.Snapshot(), cfg.Frame); err != nil {
			slog.Error("frame write failed", "path", cfg.Out, "error", err)
		}
	}

	// ── Ledger ────────────────────────────────────────────────────────
	var db *ledger.DB
	var runRec ledger.Run
	if cfg.DBPath != "" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create db dir: %w", err)
			}
		}
		db, err = ledger.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("ledger opened", "path", cfg.DBPath)

		runRec, err = db.StartRun(seed, cfg.Tiling.InitialSize, pal.Name())
		if err != nil {
			return err
		}
	}
	recordSample := func(step uint64) {
		if db == nil {
			return
		}
		st := sim.Stats()
		err := db.RecordSample(ledger.Sample{
			RunID:     runRec.ID,
			Step:      step,
			Vertices:  st.Vertices,
			Triangles: st.Triangles,
			Open:      st.Open,
		})
		if err != nil {
			slog.Error("sample failed", "step", step, "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Interval = cfg.Interval
	eng.MaxSteps = cfg.MaxSteps
	eng.SampleEvery = cfg.SampleEvery
	eng.FrameEvery = cfg.RenderEvery
	eng.SetSpeed(cfg.Speed)

	eng.OnStep = func(step uint64, added tiling.TriangleAdded) {
		slog.Debug("triangle added", "step", step, "triangle", added.ID, "vertices", added.Vertices)
	}
	eng.OnSample = recordSample
	eng.OnFrame = func(uint64) { writeFrame() }
	eng.OnHalt = func(step uint64) {
		st := sim.Stats()
		slog.Info("growth halted", "steps", humanize.Comma(int64(step)), "closed", st.Closed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Port > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("GOLDGROW_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		srv := &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Port:     cfg.Port,
			AdminKey: cfg.AdminKey,
			RunID:    runRec.ID,
			Seed:     seed,
			Palette:  pal.Name(),
			Frame:    cfg.Frame,
		}
		srv.Start(ctx)
		fmt.Printf("Live view: http://localhost:%d/api/v1/status\n", cfg.Port)
	}

	// ── Start ─────────────────────────────────────────────────────────
	fmt.Println("Growing... (Ctrl+C to stop)")
	runErr := eng.Run(ctx)

	writeFrame()
	st := sim.Stats()
	if db != nil {
		recordSample(st.Steps)
		if err := db.FinishRun(runRec.ID, st.Steps, st.Halted); err != nil {
			slog.Error("finish run failed", "error", err)
		}
	}

	slog.Info("goldgrow stopped",
		"steps", humanize.Comma(int64(st.Steps)),
		"triangles", humanize.Comma(int64(st.Triangles)),
		"open", st.Open,
		"halted", st.Halted,
	)
	return runErr
}
