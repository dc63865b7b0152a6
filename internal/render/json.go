package render

import (
	"encoding/json"
	"io"

	"github.com/jbeda/geom"

	"github.com/talgya/goldgrow/internal/tiling"
)

// JSONRenderer dumps the snapshot with its bounds, for external viewers.
type JSONRenderer struct{}

// Name returns the format name.
func (r *JSONRenderer) Name() string { return "json" }

// Extension returns the file extension.
func (r *JSONRenderer) Extension() string { return ".json" }

// Document is the JSON frame layout.
type Document struct {
	Bounds    geom.Rect         `json:"bounds"`
	Vertices  []tiling.Vertex   `json:"vertices"`
	Triangles []tiling.Triangle `json:"triangles"`
	Open      int               `json:"open"`
}

// Render writes snap as indented JSON. Surface options are ignored.
func (r *JSONRenderer) Render(w io.Writer, snap tiling.Snapshot, _ Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{
		Bounds:    snap.Bounds(),
		Vertices:  snap.Vertices,
		Triangles: snap.Triangles,
		Open:      snap.Open,
	})
}
