// Package refine runs rounds of direction-guided blurring at doubling radius.
package refine

import (
	"context"
	"fmt"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/MeKo-Tech/seamlesstex/internal/filter"
)

// MaxRadius bounds the radius of the last round.
const MaxRadius = 1 << 24

// RoundFunc observes the field produced by a round. It must not modify f.
type RoundFunc func(round, radius int, f *field.Field)

// Options configure a refinement run.
type Options struct {
	Rounds     int  // number of blur rounds (K)
	BaseRadius int  // radius of round 0 (R); round k uses R·2^k
	Normalize  bool // contrast-stretch after every round
	Workers    int
	OnRound    RoundFunc
}

// Radius returns the blur radius of the given round.
func (o Options) Radius(round int) int {
	return o.BaseRadius << round
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d", o.Rounds)
	}
	if o.BaseRadius < 0 {
		return fmt.Errorf("base radius must be non-negative, got %d", o.BaseRadius)
	}
	if o.Rounds > 30 {
		return fmt.Errorf("rounds must be at most 30, got %d", o.Rounds)
	}
	if o.Rounds > 0 && o.BaseRadius > MaxRadius>>(o.Rounds-1) {
		return fmt.Errorf("radius %d over %d rounds exceeds %d", o.BaseRadius, o.Rounds, MaxRadius)
	}
	return nil
}

// Run blurs base along the fixed direction field for o.Rounds rounds,
// doubling the radius each round and, if o.Normalize is set, re-stretching
// the contrast after each one so repeated averaging does not collapse the
// field to flat gray. base and direction are not modified.
func Run(base, direction *field.Field, o Options) (*field.Field, error) {
	return RunContext(context.Background(), base, direction, o)
}

// RunContext is Run with cancellation checked before every round.
func RunContext(ctx context.Context, base, direction *field.Field, o Options) (*field.Field, error) {
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("refinement: %w", err)
	}
	if err := field.CheckSameSize(base, direction); err != nil {
		return nil, fmt.Errorf("refinement: %w", err)
	}

	current := base.Clone()
	for round := 0; round < o.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("refinement round %d: %w", round, err)
		}
		radius := o.Radius(round)
		next, err := filter.DirectionalBlur(current, direction, radius, o.Workers)
		if err != nil {
			return nil, fmt.Errorf("refinement round %d: %w", round, err)
		}
		if o.Normalize {
			next = filter.Normalize(next)
		}
		current = next
		if o.OnRound != nil {
			o.OnRound(round, radius, current)
		}
	}
	return current, nil
}
