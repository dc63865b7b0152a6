package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/talgya/goldgrow/internal/tiling"
)

// SVGRenderer outputs one polygon per triangle.
type SVGRenderer struct{}

// Name returns the format name.
func (r *SVGRenderer) Name() string { return "svg" }

// Extension returns the file extension.
func (r *SVGRenderer) Extension() string { return ".svg" }

// Render writes snap as an SVG document.
func (r *SVGRenderer) Render(w io.Writer, snap tiling.Snapshot, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	vp := fit(snap.Bounds(), opts)

	canvas.Start(opts.Width, opts.Height)
	canvas.Title(fmt.Sprintf("golden tiling, %d triangles", len(snap.Triangles)))
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+rgb(opts.Background))
	canvas.Gstyle(fmt.Sprintf("stroke-width:%g;stroke-linejoin:round", opts.LineWidth))

	xs, ys := make([]int, 3), make([]int, 3)
	for _, t := range snap.Triangles {
		for i, p := range snap.Corners(t) {
			q := vp.apply(p)
			xs[i], ys[i] = int(math.Round(q.X)), int(math.Round(q.Y))
		}
		canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;stroke:%s", rgb(t.Fill), rgb(t.Stroke)))
	}

	canvas.Gend()
	canvas.End()
	return ew.err
}

func rgb(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
