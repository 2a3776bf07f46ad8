package filter

import (
	"math"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
)

// Normalize stretches f so its intensities span [0,255]:
// v' = round((v-min)/(max-min)*255). A flat field is returned as an
// unchanged copy.
func Normalize(f *field.Field) *field.Field {
	lo, hi := f.MinMax()
	if hi <= lo {
		return f.Clone()
	}

	var lut [256]uint8
	span := float64(hi - lo)
	for v := int(lo); v <= int(hi); v++ {
		lut[v] = field.ClampU8(int(math.Round(float64(v-int(lo)) / span * 255)))
	}

	out := field.New(f.W, f.H)
	for i, v := range f.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// Invert returns 255-v for every pixel.
func Invert(f *field.Field) *field.Field {
	out := field.New(f.W, f.H)
	for i, v := range f.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}
