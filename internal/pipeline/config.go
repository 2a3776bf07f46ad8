package pipeline

import (
	"fmt"

	"github.com/MeKo-Tech/seamlesstex/internal/noise"
	"github.com/MeKo-Tech/seamlesstex/internal/refine"
)

// Pipeline variants. Earlier variants are subsets of the refined pipeline
// with stages switched off.
const (
	VariantVoronoi   = "voronoi"    // distance field only
	VariantBlur      = "blur"       // one blur round guided by the distance field
	VariantNoiseBlur = "noise-blur" // one blur round guided by the noise field
	VariantRefined   = "refined"    // K normalized rounds guided by the distance field
)

// Direction sources for the blur.
const (
	DirectionDistance = "distance"
	DirectionNoise    = "noise"
)

// Variants lists every accepted variant name.
var Variants = []string{VariantVoronoi, VariantBlur, VariantNoiseBlur, VariantRefined}

// noiseSeedSalt decorrelates the noise seed from the site seed.
const noiseSeedSalt = 0x6e6f697365

// Config describes one texture set.
type Config struct {
	Variant        string
	Direction      string // refined variant only; other variants fix it
	NoisePrimitive string
	Noise          noise.Params
	Seed           int64
	Size           int
	Points         int
	BlurRadius     int
	Rounds         int
	Workers        int
	Invert         bool // sites bright instead of dark in the final stage
	KeepRounds     bool // record every refinement round as a stage
}

// DefaultConfig returns the canonical refined configuration.
func DefaultConfig() Config {
	return Config{
		Variant:        VariantRefined,
		Direction:      DirectionDistance,
		NoisePrimitive: noise.PrimitivePerlin,
		Noise:          noise.DefaultParams(),
		Seed:           1337,
		Size:           256,
		Points:         20,
		BlurRadius:     1,
		Rounds:         4,
	}
}

// Plan is the set of stages a configuration runs.
type Plan struct {
	Direction string
	Noise     bool
	Normalize bool
	Rounds    int
}

// Plan resolves the variant into concrete stage switches.
func (c Config) Plan() (Plan, error) {
	switch c.Variant {
	case VariantVoronoi:
		return Plan{}, nil
	case VariantBlur:
		return Plan{Direction: DirectionDistance, Rounds: 1}, nil
	case VariantNoiseBlur:
		return Plan{Direction: DirectionNoise, Noise: true, Rounds: 1}, nil
	case "", VariantRefined:
		dir := c.Direction
		if dir == "" {
			dir = DirectionDistance
		}
		if dir != DirectionDistance && dir != DirectionNoise {
			return Plan{}, fmt.Errorf("unknown direction source %q (want %s or %s)", dir, DirectionDistance, DirectionNoise)
		}
		return Plan{Direction: dir, Noise: true, Normalize: true, Rounds: c.Rounds}, nil
	default:
		return Plan{}, fmt.Errorf("unknown variant %q (want one of %v)", c.Variant, Variants)
	}
}

// NoiseSeed is the seed handed to the noise primitive.
func (c Config) NoiseSeed() int64 {
	return c.Seed ^ noiseSeedSalt
}

// maxRadiusPerSize caps the last blur radius at this multiple of Size; wider
// kernels only wrap around the tile again.
const maxRadiusPerSize = 4

// Validate checks the configuration before any stage runs.
func (c Config) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("size must be positive, got %d", c.Size)
	}
	if c.Points < 1 {
		return fmt.Errorf("points must be at least 1, got %d", c.Points)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}

	plan, err := c.Plan()
	if err != nil {
		return err
	}
	if plan.Noise {
		if err := c.Noise.Validate(); err != nil {
			return fmt.Errorf("noise: %w", err)
		}
		if _, err := noise.NewSource(c.NoisePrimitive, 0); err != nil {
			return err
		}
	}
	ro := refine.Options{Rounds: plan.Rounds, BaseRadius: c.BlurRadius}
	if err := ro.Validate(); err != nil {
		return fmt.Errorf("refinement: %w", err)
	}
	if plan.Rounds > 0 {
		if last := ro.Radius(plan.Rounds - 1); last > maxRadiusPerSize*c.Size {
			return fmt.Errorf("refinement: last round radius %d exceeds %d for size %d",
				last, maxRadiusPerSize*c.Size, c.Size)
		}
	}
	return nil
}
