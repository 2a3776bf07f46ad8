// Package filter holds the whole-field transforms of the refinement loop.
package filter

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/MeKo-Tech/seamlesstex/internal/torus"
	"github.com/MeKo-Tech/seamlesstex/internal/worker"
)

// angleTable holds cos/sin for every direction intensity. Intensity v maps
// linearly onto [0°,360°) as v/256 of a full turn.
var angleTable = func() (t [256][2]float64) {
	for v := range t {
		theta := float64(v) / 256 * 2 * math.Pi
		t[v] = [2]float64{math.Cos(theta), math.Sin(theta)}
	}
	return t
}()

// Angle returns the direction in radians encoded by intensity v.
func Angle(v uint8) float64 {
	return float64(v) / 256 * 2 * math.Pi
}

// DirectionalBlur averages 2r+1 samples of src along the line through each
// pixel whose angle is read from dir. Sample offsets are
// (round(i·cosθ), round(i·sinθ)) for i in [-r,r] and wrap around the field
// edges, so a seamless source stays seamless. r == 0 returns a copy of src.
func DirectionalBlur(src, dir *field.Field, r, workers int) (*field.Field, error) {
	if err := field.CheckSameSize(src, dir); err != nil {
		return nil, fmt.Errorf("directional blur: %w", err)
	}
	if r < 0 {
		return nil, fmt.Errorf("directional blur: radius must be non-negative, got %d", r)
	}
	if r == 0 {
		return src.Clone(), nil
	}

	w, h := src.W, src.H
	n := 2*r + 1
	out := field.New(w, h)

	worker.Rows(h, workers, func(_, y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				cs := angleTable[dir.Pix[y*w+x]]
				sum := 0
				for i := -r; i <= r; i++ {
					dx := int(math.Round(float64(i) * cs[0]))
					dy := int(math.Round(float64(i) * cs[1]))
					sx := torus.WrapIndex(x+dx, w)
					sy := torus.WrapIndex(y+dy, h)
					sum += int(src.Pix[sy*w+sx])
				}
				out.Pix[y*w+x] = field.RoundU8(float64(sum) / float64(n))
			}
		}
	})
	return out, nil
}
