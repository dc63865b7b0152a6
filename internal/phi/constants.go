// Package phi provides the golden-ratio constants the tiling is built from.
// Every edge length and every direction in the tiling traces back to Φ and
// the tenfold split of the full turn.
package phi

import "math"

// Phi is the golden ratio.
const Phi = 1.6180339887498948

// Powers of Phi used by the growth rule and the seed triangle.
var (
	// Matter (Φ⁻¹): contraction applied to the base edge to get the new leg.
	// ~0.618, the ratio between the short and long side of a golden triangle.
	Matter = 1 / Phi // 0.61803...

	// Being (Φ¹): ratio of the long side to the short side.
	Being = Phi // 1.61803...
)

// Directions is the number of quantised edge directions around a vertex.
// Fivefold symmetry doubled: every edge points along a multiple of 36°.
const Directions = 10

// AngleUnit is one direction step, 36° in radians.
const AngleUnit = math.Pi / 5

// Sacred angles of the golden triangle family, in degrees.
const (
	// ApexAngle is the sharp apex of the golden triangle.
	ApexAngle = 36.0

	// BaseAngle is each base angle of the golden triangle.
	BaseAngle = 72.0

	// GnomonAngle is the obtuse apex of the golden gnomon.
	GnomonAngle = 108.0
)
