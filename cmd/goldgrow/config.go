package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/talgya/goldgrow/internal/render"
	"github.com/talgya/goldgrow/internal/tiling"
)

// config is everything main needs, gathered from flags and environment.
type config struct {
	Tiling tiling.Config
	Frame  render.Options

	Seed        int64
	Interval    time.Duration
	Speed       float64
	MaxSteps    uint64
	Palette     string
	Out         string
	Format      string
	RenderEvery uint64
	Port        int
	AdminKey    string
	DBPath      string
	SampleEvery uint64
	LogJSON     bool
	Debug       bool
}

// parseConfig reads flags from args, falling back to getenv for secrets
// and paths that are awkward on a command line.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (config, error) {
	cfg := config{
		Tiling: tiling.DefaultConfig(),
		Frame:  render.DefaultOptions(),
	}

	fs := flag.NewFlagSet("goldgrow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&cfg.Tiling.InitialSize, "size", cfg.Tiling.InitialSize, "base length of the seed triangle")
	fs.Float64Var(&cfg.Tiling.Origin.X, "origin-x", cfg.Tiling.Origin.X, "x of the seed origin")
	fs.Float64Var(&cfg.Tiling.Origin.Y, "origin-y", cfg.Tiling.Origin.Y, "y of the seed origin")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 = fresh seed)")
	fs.DurationVar(&cfg.Interval, "interval", 10*time.Millisecond, "step interval at speed 1")
	fs.Float64Var(&cfg.Speed, "speed", 1, "speed multiplier (0 = start paused)")
	fs.Uint64Var(&cfg.MaxSteps, "max-steps", 0, "stop after this many steps (0 = forever)")
	fs.StringVar(&cfg.Palette, "palette", "random", "fill palette: random or noise")
	fs.StringVar(&cfg.Out, "out", "", "frame output path (empty = no frames)")
	fs.StringVar(&cfg.Format, "format", "", "frame format: svg, png or json (default from -out extension)")
	fs.Uint64Var(&cfg.RenderEvery, "render-every", 100, "rewrite the frame every N steps (0 = only at exit)")
	fs.IntVar(&cfg.Frame.Width, "width", cfg.Frame.Width, "frame width in pixels")
	fs.IntVar(&cfg.Frame.Height, "height", cfg.Frame.Height, "frame height in pixels")
	fs.IntVar(&cfg.Port, "port", 8080, "HTTP port (0 = no HTTP view)")
	fs.StringVar(&cfg.DBPath, "db", getenv("GOLDGROW_DB"), "run ledger database (empty = no ledger)")
	fs.Uint64Var(&cfg.SampleEvery, "sample-every", 50, "ledger sample cadence in steps")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log as JSON")
	fs.BoolVar(&cfg.Debug, "debug", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		return config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	cfg.AdminKey = getenv("GOLDGROW_ADMIN_KEY")

	if err := cfg.Tiling.Validate(); err != nil {
		return config{}, err
	}
	if cfg.Out != "" {
		if err := cfg.Frame.Validate(); err != nil {
			return config{}, err
		}
	}
	if cfg.Speed < 0 {
		return config{}, fmt.Errorf("speed must not be negative: %v", cfg.Speed)
	}
	return cfg, nil
}

// renderer resolves the frame renderer, or nil when frames are off.
func (c config) renderer() (render.Renderer, error) {
	if c.Out == "" {
		return nil, nil
	}
	if c.Format != "" {
		return render.ForFormat(c.Format)
	}
	return render.ForPath(c.Out)
}
