// Package pipeline wires site generation, the distance and noise fields and
// directional refinement into one texture generator.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/MeKo-Tech/seamlesstex/internal/filter"
	"github.com/MeKo-Tech/seamlesstex/internal/noise"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/refine"
	"github.com/MeKo-Tech/seamlesstex/internal/sites"
	"github.com/MeKo-Tech/seamlesstex/internal/voronoi"
)

// Stage names.
const (
	StageDistance = "distance"
	StageNoise    = "noise"
	StageFinal    = "final"
)

// RoundStage names the stage recorded for a refinement round.
func RoundStage(round int) string {
	return "round_" + strconv.Itoa(round)
}

// Stage is a named field produced during generation.
type Stage struct {
	Field *field.Field
	Name  string
}

// Result holds every stage of one run in production order.
type Result struct {
	Sites  sites.Set
	Stages []Stage
	Config Config
	Plan   Plan
}

// Stage returns the named stage, or nil if the run did not produce it.
func (r *Result) Stage(name string) *field.Field {
	for _, s := range r.Stages {
		if s.Name == name {
			return s.Field
		}
	}
	return nil
}

// Final returns the finished texture.
func (r *Result) Final() *field.Field {
	return r.Stage(StageFinal)
}

func (r *Result) add(name string, f *field.Field) {
	r.Stages = append(r.Stages, Stage{Name: name, Field: f})
}

// Generator runs the texture pipeline.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator returns a generator logging to logger (slog.Default when nil).
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate runs every stage the configuration enables. The context is checked
// between stages and refinement rounds; a cancelled run returns no result.
func (g *Generator) Generate(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	plan, err := cfg.Plan()
	if err != nil {
		return nil, err
	}

	res := &Result{Config: cfg, Plan: plan}
	res.Sites = sites.Generate(cfg.Points, rand.New(rand.NewSource(cfg.Seed)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	dist, err := voronoi.Generate(res.Sites, cfg.Size, cfg.Workers)
	if err != nil {
		return nil, err
	}
	res.add(StageDistance, dist)
	g.log().Info("Generated distance field", "size", cfg.Size, "sites", cfg.Points, "elapsed", time.Since(start))

	var noiseField *field.Field
	if plan.Noise {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.NoisePrimitive == noise.PrimitiveTorus && !cfg.Noise.Tileable() {
			g.log().Warn("Noise octave frequencies are not integers; noise field will show a seam",
				"base_frequency", cfg.Noise.BaseFrequency, "lacunarity", cfg.Noise.Lacunarity)
		}

		start = time.Now()
		src, err := noise.NewSource(cfg.NoisePrimitive, cfg.NoiseSeed())
		if err != nil {
			return nil, fmt.Errorf("noise field: %w", err)
		}
		noiseField, err = noise.Generate(src, cfg.Size, cfg.Noise, cfg.Workers)
		if err != nil {
			return nil, err
		}
		res.add(StageNoise, noiseField)
		g.log().Info("Generated noise field", "primitive", cfg.NoisePrimitive, "octaves", cfg.Noise.Octaves, "elapsed", time.Since(start))
	}

	direction := dist
	if plan.Direction == DirectionNoise {
		direction = noiseField
	}

	start = time.Now()
	final, err := refine.RunContext(ctx, dist, direction, refine.Options{
		Rounds:     plan.Rounds,
		BaseRadius: cfg.BlurRadius,
		Normalize:  plan.Normalize,
		Workers:    cfg.Workers,
		OnRound: func(round, radius int, f *field.Field) {
			g.log().Debug("Refinement round done", "round", round, "radius", radius)
			if cfg.KeepRounds {
				res.add(RoundStage(round), f)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	if plan.Rounds > 0 {
		g.log().Info("Refined texture", "rounds", plan.Rounds, "direction", plan.Direction, "elapsed", time.Since(start))
	}

	if cfg.Invert {
		final = filter.Invert(final)
	}
	res.add(StageFinal, final)

	return res, nil
}

// WriteStages writes every stage of res into dir as <prefix><stage>.<ext>.
// It returns the written paths in stage order.
func (g *Generator) WriteStages(res *Result, dir, prefix string, opts output.Options) ([]string, error) {
	paths := make([]string, 0, len(res.Stages))
	for _, s := range res.Stages {
		path := filepath.Join(dir, prefix+s.Name+opts.Ext())
		if err := output.WriteFile(path, s.Field, opts); err != nil {
			return paths, fmt.Errorf("failed to write stage %s: %w", s.Name, err)
		}
		g.log().Debug("Wrote stage", "stage", s.Name, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
