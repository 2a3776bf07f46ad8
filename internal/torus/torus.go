// Package torus provides geometry on the unit square with opposite edges
// identified, which is what makes generated textures tile without a seam.
package torus

import "math"

// Point is a location on the unit torus. Both coordinates lie in [0,1).
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between p and q measured on the
// torus: along each axis the shorter of the direct and the wraparound path is
// used. The result lies in [0, sqrt(0.5)].
func Distance(p, q Point) float64 {
	dx := axisDistance(p.X, q.X)
	dy := axisDistance(p.Y, q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func axisDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 1-d)
}

// PixelPoint maps pixel (x,y) of a w×h grid to its sample position (x/w, y/h).
func PixelPoint(x, y, w, h int) Point {
	return Point{X: float64(x) / float64(w), Y: float64(y) / float64(h)}
}

// WrapIndex wraps i into [0,n) using a true modulo, so negative offsets never
// index out of bounds.
func WrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Wrap01 wraps f into [0,1).
func Wrap01(f float64) float64 {
	f = math.Mod(f, 1.0)
	if f < 0 {
		f += 1
	}
	if f >= 1 {
		// -tiny + 1 rounds up to exactly 1.
		f = 0
	}
	return f
}
