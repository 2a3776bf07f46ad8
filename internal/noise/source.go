// Package noise builds fractal (fBm) intensity fields from a seeded gradient
// noise primitive.
package noise

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
)

// Source is a deterministic, seeded 2D gradient-noise primitive returning
// values in roughly [-1,1].
type Source interface {
	Noise2D(x, y float64) float64
}

// Primitive names accepted by NewSource.
const (
	PrimitivePerlin = "perlin"
	PrimitiveTorus  = "torus"
)

// NewSource returns the named primitive seeded with seed.
func NewSource(kind string, seed int64) (Source, error) {
	switch kind {
	case "", PrimitivePerlin:
		return NewPerlin(seed), nil
	case PrimitiveTorus:
		return NewTorus(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise primitive %q (want %s or %s)", kind, PrimitivePerlin, PrimitiveTorus)
	}
}

// NewPerlin returns single-octave Perlin noise. Octaves are accumulated by
// Generate, so the library's own octave loop is pinned to one pass.
func NewPerlin(seed int64) Source {
	return perlin.NewPerlin(2.0, 2.0, 1, seed)
}

// torusRadius is the radius of both circles of the 4D torus embedding.
// One unit of input then spans a circle of circumference π in noise space.
const torusRadius = 0.5

// Torus samples 4D simplex noise on a flat torus embedded in R⁴. Inputs are
// periodic with period 1 on both axes, so any fBm whose octave frequencies are
// integers tiles without a seam.
type Torus struct {
	s *simplex
}

// NewTorus returns a tileable primitive seeded with seed.
func NewTorus(seed int64) *Torus {
	return &Torus{s: newSimplex(seed)}
}

// Noise2D implements Source.
func (t *Torus) Noise2D(x, y float64) float64 {
	theta := 2 * math.Pi * x
	phi := 2 * math.Pi * y
	return t.s.noise4D(
		math.Cos(theta)*torusRadius,
		math.Sin(theta)*torusRadius,
		math.Cos(phi)*torusRadius,
		math.Sin(phi)*torusRadius,
	)
}
