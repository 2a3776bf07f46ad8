package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/seamlesstex/internal/filter"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig(variant string) Config {
	cfg := DefaultConfig()
	cfg.Variant = variant
	cfg.Size = 32
	cfg.Points = 6
	cfg.Seed = 42
	return cfg
}

func stageNames(res *Result) []string {
	names := make([]string, 0, len(res.Stages))
	for _, s := range res.Stages {
		names = append(names, s.Name)
	}
	return names
}

func TestConfigPlan(t *testing.T) {
	tests := []struct {
		variant string
		want    Plan
	}{
		{VariantVoronoi, Plan{}},
		{VariantBlur, Plan{Direction: DirectionDistance, Rounds: 1}},
		{VariantNoiseBlur, Plan{Direction: DirectionNoise, Noise: true, Rounds: 1}},
		{VariantRefined, Plan{Direction: DirectionDistance, Noise: true, Normalize: true, Rounds: 4}},
		{"", Plan{Direction: DirectionDistance, Noise: true, Normalize: true, Rounds: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			plan, err := smallConfig(tt.variant).Plan()
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}

	_, err := smallConfig("sketch").Plan()
	require.Error(t, err)

	cfg := smallConfig(VariantRefined)
	cfg.Direction = "sideways"
	_, err = cfg.Plan()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero size", func(c *Config) { c.Size = 0 }},
		{"no points", func(c *Config) { c.Points = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"negative radius", func(c *Config) { c.BlurRadius = -1 }},
		{"negative rounds", func(c *Config) { c.Rounds = -1 }},
		{"radius wider than tile", func(c *Config) { c.Size = 16; c.BlurRadius = 9; c.Rounds = 4 }},
		{"radius overflow", func(c *Config) { c.BlurRadius = 1 << 40; c.Rounds = 30 }},
		{"bad persistence", func(c *Config) { c.Noise.Persistence = 1 }},
		{"bad primitive", func(c *Config) { c.NoisePrimitive = "worley" }},
		{"bad variant", func(c *Config) { c.Variant = "v5" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	edge := DefaultConfig()
	edge.Size, edge.BlurRadius, edge.Rounds = 16, 8, 4
	require.NoError(t, edge.Validate(), "radius 64 is exactly 4x size 16")

	// Noise parameters are irrelevant when the variant skips the noise stage.
	cfg := DefaultConfig()
	cfg.Variant = VariantVoronoi
	cfg.Noise.Octaves = 0
	require.NoError(t, cfg.Validate())
}

func TestGenerateRefinedStages(t *testing.T) {
	cfg := smallConfig(VariantRefined)
	cfg.KeepRounds = true

	res, err := NewGenerator(nil).Generate(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"distance", "noise", "round_0", "round_1", "round_2", "round_3", "final"}, stageNames(res))
	assert.Equal(t, cfg.Points, res.Sites.Len())

	final := res.Final()
	require.NotNil(t, final)
	assert.Equal(t, 32, final.W)
	assert.True(t, final.Equal(res.Stage("round_3")))

	lo, hi := final.MinMax()
	assert.Equal(t, uint8(0), lo)
	assert.Equal(t, uint8(255), hi)

	_, hi = res.Stage(StageDistance).MinMax()
	assert.Equal(t, uint8(255), hi, "farthest pixel is brightest")
}

func TestGenerateWithoutKeepRounds(t *testing.T) {
	res, err := NewGenerator(nil).Generate(context.Background(), smallConfig(VariantRefined))
	require.NoError(t, err)
	assert.Equal(t, []string{"distance", "noise", "final"}, stageNames(res))
}

func TestGenerateVariantsMatchStages(t *testing.T) {
	gen := NewGenerator(nil)
	ctx := context.Background()

	t.Run("voronoi", func(t *testing.T) {
		res, err := gen.Generate(ctx, smallConfig(VariantVoronoi))
		require.NoError(t, err)
		assert.Equal(t, []string{"distance", "final"}, stageNames(res))
		assert.True(t, res.Final().Equal(res.Stage(StageDistance)))
		assert.NotSame(t, res.Final(), res.Stage(StageDistance))
	})

	t.Run("blur", func(t *testing.T) {
		cfg := smallConfig(VariantBlur)
		cfg.BlurRadius = 3
		res, err := gen.Generate(ctx, cfg)
		require.NoError(t, err)

		dist := res.Stage(StageDistance)
		want, err := filter.DirectionalBlur(dist, dist, 3, 1)
		require.NoError(t, err)
		assert.True(t, res.Final().Equal(want))
	})

	t.Run("noise-blur", func(t *testing.T) {
		cfg := smallConfig(VariantNoiseBlur)
		cfg.BlurRadius = 2
		res, err := gen.Generate(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, res.Stage(StageNoise))

		want, err := filter.DirectionalBlur(res.Stage(StageDistance), res.Stage(StageNoise), 2, 1)
		require.NoError(t, err)
		assert.True(t, res.Final().Equal(want))
	})
}

func TestGenerateDeterministic(t *testing.T) {
	gen := NewGenerator(nil)
	cfg := smallConfig(VariantRefined)

	a, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)

	for _, s := range a.Stages {
		assert.True(t, s.Field.Equal(b.Stage(s.Name)), "stage %s differs between runs", s.Name)
	}

	cfg.Seed++
	c, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, a.Stage(StageDistance).Equal(c.Stage(StageDistance)))
	assert.False(t, a.Stage(StageNoise).Equal(c.Stage(StageNoise)))
}

func TestGenerateWorkerCountIndependent(t *testing.T) {
	gen := NewGenerator(nil)

	serial := smallConfig(VariantRefined)
	serial.Workers = 1
	parallel := serial
	parallel.Workers = 5

	a, err := gen.Generate(context.Background(), serial)
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), parallel)
	require.NoError(t, err)
	assert.True(t, a.Final().Equal(b.Final()))
}

func TestGenerateInvert(t *testing.T) {
	gen := NewGenerator(nil)
	cfg := smallConfig(VariantVoronoi)

	plain, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Invert = true
	inverted, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, filter.Invert(plain.Final()).Equal(inverted.Final()))
	assert.True(t, plain.Stage(StageDistance).Equal(inverted.Stage(StageDistance)), "only the final stage is inverted")
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewGenerator(nil).Generate(ctx, smallConfig(VariantRefined))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, res)
}

func TestGenerateInvalidConfig(t *testing.T) {
	cfg := smallConfig(VariantRefined)
	cfg.Noise.Lacunarity = 0.5

	res, err := NewGenerator(nil).Generate(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "lacunarity")
	assert.Nil(t, res)
}

func TestWriteStages(t *testing.T) {
	gen := NewGenerator(nil)
	res, err := gen.Generate(context.Background(), smallConfig(VariantBlur))
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := gen.WriteStages(res, dir, "seed42_", output.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "seed42_distance.png"),
		filepath.Join(dir, "seed42_final.png"),
	}, paths)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()

	decoded, err := output.Decode(f, output.ChannelGray)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(res.Final()))
}
