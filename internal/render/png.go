package render

import (
	"fmt"
	"io"

	"github.com/gogpu/gg"

	"github.com/talgya/goldgrow/internal/tiling"
)

// PNGRenderer rasterises the tiling with the gg software renderer.
type PNGRenderer struct{}

// Name returns the format name.
func (r *PNGRenderer) Name() string { return "png" }

// Extension returns the file extension.
func (r *PNGRenderer) Extension() string { return ".png" }

// Render draws every triangle filled and outlined, in insertion order.
func (r *PNGRenderer) Render(w io.Writer, snap tiling.Snapshot, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	defer dc.Close()

	dc.ClearWithColor(gg.FromColor(opts.Background))
	dc.SetLineWidth(opts.LineWidth)
	dc.SetLineJoin(gg.LineJoinRound)

	vp := fit(snap.Bounds(), opts)
	for _, t := range snap.Triangles {
		c := snap.Corners(t)
		a, b, p := vp.apply(c[0]), vp.apply(c[1]), vp.apply(c[2])

		dc.MoveTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
		dc.LineTo(p.X, p.Y)
		dc.ClosePath()

		dc.SetColor(t.Fill)
		if err := dc.FillPreserve(); err != nil {
			return fmt.Errorf("fill triangle %d: %w", t.ID, err)
		}
		dc.SetColor(t.Stroke)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("stroke triangle %d: %w", t.ID, err)
		}
	}

	return dc.EncodePNG(w)
}
