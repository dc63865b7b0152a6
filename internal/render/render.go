// Package render draws tiling snapshots to SVG, PNG or JSON.
// Renderers only read snapshots; they never see the live graph.
package render

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jbeda/geom"

	"github.com/talgya/goldgrow/internal/tiling"
)

// Options controls the output surface.
type Options struct {
	Width      int        // Output width in pixels
	Height     int        // Output height in pixels
	Margin     float64    // Blank border in pixels
	Background color.RGBA // Surface colour
	LineWidth  float64    // Triangle outline width in pixels
}

// DefaultOptions returns an 800x800 surface with a light background.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     800,
		Margin:     20,
		Background: color.RGBA{R: 248, G: 248, B: 248, A: 255},
		LineWidth:  1,
	}
}

// Validate rejects surfaces that cannot hold a drawing.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("render: invalid surface %dx%d", o.Width, o.Height)
	}
	if 2*o.Margin >= float64(o.Width) || 2*o.Margin >= float64(o.Height) {
		return fmt.Errorf("render: margin %v leaves no room on %dx%d", o.Margin, o.Width, o.Height)
	}
	return nil
}

// Renderer writes a snapshot in one output format.
type Renderer interface {
	// Render draws snap to w.
	Render(w io.Writer, snap tiling.Snapshot, opts Options) error

	// Name returns the format name used on the command line.
	Name() string

	// Extension returns the file extension, including the dot.
	Extension() string
}

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "png":
		return &PNGRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ForPath picks a renderer from a file extension.
func ForPath(path string) (Renderer, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer output format from %q", path)
	}
	return ForFormat(ext)
}

// WriteFile renders snap into path. The file is replaced atomically so a
// viewer polling it never sees a half-written frame.
func WriteFile(path string, r Renderer, snap tiling.Snapshot, opts Options) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".frame-*"+r.Extension())
	if err != nil {
		return fmt.Errorf("create temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := r.Render(tmp, snap, opts); err != nil {
		tmp.Close()
		return fmt.Errorf("render %s: %w", r.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	slog.Debug("frame written", "path", path, "format", r.Name(), "triangles", len(snap.Triangles))
	return nil
}

// viewport maps world coordinates onto the output surface, preserving the
// aspect ratio and centring the drawing.
type viewport struct {
	origin geom.Coord // world point drawn at the top-left of the content box
	scale  float64
	offset geom.Coord // pixel offset of the content box
}

func fit(bounds geom.Rect, opts Options) viewport {
	boxW := float64(opts.Width) - 2*opts.Margin
	boxH := float64(opts.Height) - 2*opts.Margin

	w, h := bounds.Width(), bounds.Height()
	scale := 1.0
	switch {
	case w > 0 && h > 0:
		scale = min(boxW/w, boxH/h)
	case w > 0:
		scale = boxW / w
	case h > 0:
		scale = boxH / h
	}

	return viewport{
		origin: bounds.Min,
		scale:  scale,
		offset: geom.Coord{
			X: opts.Margin + (boxW-w*scale)/2,
			Y: opts.Margin + (boxH-h*scale)/2,
		},
	}
}

func (v viewport) apply(p geom.Coord) geom.Coord {
	return geom.Coord{
		X: v.offset.X + (p.X-v.origin.X)*v.scale,
		Y: v.offset.Y + (p.Y-v.origin.Y)*v.scale,
	}
}
