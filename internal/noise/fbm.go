package noise

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/MeKo-Tech/seamlesstex/internal/worker"
)

// Params configure the octave accumulation.
type Params struct {
	Octaves       int
	Persistence   float64 // amplitude multiplier per octave, in (0,1)
	Lacunarity    float64 // frequency multiplier per octave, > 1
	BaseFrequency float64 // frequency of the first octave
}

// DefaultParams returns four octaves of classic fBm starting at frequency 1.
func DefaultParams() Params {
	return Params{
		Octaves:       4,
		Persistence:   0.5,
		Lacunarity:    2.0,
		BaseFrequency: 1.0,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.Octaves < 1 {
		return fmt.Errorf("octaves must be at least 1, got %d", p.Octaves)
	}
	if !(p.Persistence > 0 && p.Persistence < 1) {
		return fmt.Errorf("persistence must be within (0,1), got %g", p.Persistence)
	}
	if !(p.Lacunarity > 1) {
		return fmt.Errorf("lacunarity must be greater than 1, got %g", p.Lacunarity)
	}
	if !(p.BaseFrequency > 0) || math.IsInf(p.BaseFrequency, 0) {
		return fmt.Errorf("base frequency must be positive, got %g", p.BaseFrequency)
	}
	return nil
}

// Tileable reports whether every octave frequency is an integer, which is
// what the torus primitive needs to wrap without a seam.
func (p Params) Tileable() bool {
	f := p.BaseFrequency
	for o := 0; o < p.Octaves; o++ {
		if f != math.Trunc(f) {
			return false
		}
		f *= p.Lacunarity
	}
	return true
}

// Sample returns the fBm value at unit coordinates (u,v), mapped to [0,1].
func (p Params) Sample(src Source, u, v float64) float64 {
	value, norm := 0.0, 0.0
	amp, freq := 1.0, p.BaseFrequency
	for o := 0; o < p.Octaves; o++ {
		value += src.Noise2D(u*freq, v*freq) * amp
		norm += amp
		amp *= p.Persistence
		freq *= p.Lacunarity
	}
	return (value/norm + 1) / 2
}

// Generate fills a size×size field with fBm intensity, round(Sample*255),
// clamped to [0,255]. Rows are computed in parallel; the result does not
// depend on the worker count.
func Generate(src Source, size int, p Params, workers int) (*field.Field, error) {
	if src == nil {
		return nil, errors.New("noise field: source is nil")
	}
	if size <= 0 {
		return nil, fmt.Errorf("noise field: size must be positive, got %d", size)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("noise field: %w", err)
	}

	out := field.New(size, size)
	worker.Rows(size, workers, func(_, y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := float64(y) / float64(size)
			for x := 0; x < size; x++ {
				u := float64(x) / float64(size)
				out.Pix[y*size+x] = field.RoundU8(p.Sample(src, u, v) * 255)
			}
		}
	})
	return out, nil
}
