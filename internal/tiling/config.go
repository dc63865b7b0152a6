package tiling

import (
	"fmt"
	"math"

	"github.com/jbeda/geom"

	"github.com/talgya/goldgrow/internal/phi"
)

// Config holds the seed triangle parameters.
type Config struct {
	InitialSize float64    // Half the base of the seed triangle (> 0)
	Origin      geom.Coord // Reference point; the seed base sits InitialSize below it
}

// DefaultConfig returns the classic 100-unit seed around (300, 300).
func DefaultConfig() Config {
	return Config{
		InitialSize: 100,
		Origin:      geom.Coord{X: 300, Y: 300},
	}
}

// Validate rejects sizes that cannot produce a triangle.
func (c Config) Validate() error {
	if math.IsNaN(c.InitialSize) || math.IsInf(c.InitialSize, 0) || c.InitialSize <= 0 {
		return fmt.Errorf("%w: initial size must be positive, got %v", ErrInvalidConfig, c.InitialSize)
	}
	if math.IsNaN(c.Origin.X) || math.IsNaN(c.Origin.Y) || math.IsInf(c.Origin.X, 0) || math.IsInf(c.Origin.Y, 0) {
		return fmt.Errorf("%w: origin must be finite, got %v", ErrInvalidConfig, c.Origin)
	}
	return nil
}

// seedVertices lays out the 36°-72°-72° seed: a horizontal base from
// vertex 0 to vertex 1 and the sharp apex at vertex 2 above it.
func (c Config) seedVertices() []Vertex {
	s := c.InitialSize
	o := c.Origin
	apexHeight := s * math.Tan(phi.BaseAngle*math.Pi/180)

	return []Vertex{
		{
			ID:    0,
			Pos:   geom.Coord{X: o.X - s, Y: o.Y + s},
			Right: Edge{To: 1, Angle: 0},
			Left:  Edge{To: 2, Angle: 2},
		},
		{
			ID:    1,
			Pos:   geom.Coord{X: o.X + s, Y: o.Y + s},
			Right: Edge{To: 2, Angle: 3},
			Left:  Edge{To: 0, Angle: 5},
		},
		{
			ID:    2,
			Pos:   geom.Coord{X: o.X, Y: o.Y + s - apexHeight},
			Right: Edge{To: 0, Angle: 7},
			Left:  Edge{To: 1, Angle: 8},
		},
	}
}
