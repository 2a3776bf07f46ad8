// Package sites generates the random reference points of the distance field.
package sites

import (
	"math"
	"math/rand"

	"github.com/MeKo-Tech/seamlesstex/internal/torus"
)

// Set is an ordered, read-only collection of sites on the unit torus.
type Set struct {
	points []torus.Point
}

// Generate draws n sites with both coordinates uniform in [0,1).
// Coincident sites are allowed.
func Generate(n int, rng *rand.Rand) Set {
	if n < 0 {
		n = 0
	}
	points := make([]torus.Point, n)
	for i := range points {
		points[i] = torus.Point{X: rng.Float64(), Y: rng.Float64()}
	}
	return Set{points: points}
}

// FromPoints builds a set from fixed points. Coordinates are wrapped into [0,1).
func FromPoints(points ...torus.Point) Set {
	cp := make([]torus.Point, len(points))
	for i, p := range points {
		cp[i] = torus.Point{X: torus.Wrap01(p.X), Y: torus.Wrap01(p.Y)}
	}
	return Set{points: cp}
}

// Len returns the number of sites.
func (s Set) Len() int { return len(s.points) }

// At returns the i-th site.
func (s Set) At(i int) torus.Point { return s.points[i] }

// Points returns a copy of the sites.
func (s Set) Points() []torus.Point {
	cp := make([]torus.Point, len(s.points))
	copy(cp, s.points)
	return cp
}

// Nearest returns the toroidal distance from p to the closest site,
// or +Inf for an empty set.
func (s Set) Nearest(p torus.Point) float64 {
	best := math.Inf(1)
	for _, q := range s.points {
		if d := torus.Distance(p, q); d < best {
			best = d
		}
	}
	return best
}
