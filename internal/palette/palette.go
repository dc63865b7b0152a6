// Package palette chooses fill colours for newly placed triangles.
// Colours are cosmetic: nothing in the growth rule depends on them.
package palette

import (
	"fmt"
	"image/color"
	"math/rand"
	"strings"

	"github.com/jbeda/geom"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Warm amber range shared by every palette: each channel is base + [0, spread).
var (
	base   = [3]float64{200, 140, 50}
	spread = 50.0
)

// Palette picks the fill of a triangle from its centroid.
type Palette interface {
	Fill(centroid geom.Coord) color.RGBA
	Name() string
}

// Random draws every channel independently, ignoring position.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a palette drawing from rng.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

// Fill implements Palette.
func (p *Random) Fill(geom.Coord) color.RGBA {
	return rgb(p.rng.Float64(), p.rng.Float64(), p.rng.Float64())
}

// Name implements Palette.
func (p *Random) Name() string { return "random" }

// Noise samples three simplex fields at the centroid so neighbouring
// triangles get similar colours.
type Noise struct {
	r, g, b opensimplex.Noise
	scale   float64 // world units per noise unit
}

// NewNoise returns a noise palette. scale <= 0 selects 150 world units.
func NewNoise(seed int64, scale float64) *Noise {
	if scale <= 0 {
		scale = 150
	}
	return &Noise{
		r:     opensimplex.NewNormalized(seed),
		g:     opensimplex.NewNormalized(seed + 1),
		b:     opensimplex.NewNormalized(seed + 2),
		scale: scale,
	}
}

// Fill implements Palette.
func (p *Noise) Fill(c geom.Coord) color.RGBA {
	x, y := c.X/p.scale, c.Y/p.scale
	return rgb(p.r.Eval2(x, y), p.g.Eval2(x, y), p.b.Eval2(x, y))
}

// Name implements Palette.
func (p *Noise) Name() string { return "noise" }

// Fixed always returns the same colour.
type Fixed color.RGBA

// Fill implements Palette.
func (p Fixed) Fill(geom.Coord) color.RGBA { return color.RGBA(p) }

// Name implements Palette.
func (p Fixed) Name() string { return "fixed" }

// ByName builds a palette from its command-line name.
func ByName(name string, seed int64, rng *rand.Rand) (Palette, error) {
	switch strings.ToLower(name) {
	case "", "random":
		return NewRandom(rng), nil
	case "noise":
		return NewNoise(seed, 0), nil
	default:
		return nil, fmt.Errorf("unknown palette: %s", name)
	}
}

// rgb maps three unit values onto the amber range.
func rgb(r, g, b float64) color.RGBA {
	return color.RGBA{
		R: channel(0, r),
		G: channel(1, g),
		B: channel(2, b),
		A: 255,
	}
}

func channel(i int, t float64) uint8 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return uint8(base[i] + t*spread)
}
