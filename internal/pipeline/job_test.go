package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/seamlesstex/internal/archive"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedTasks(t *testing.T) {
	tasks := SeedTasks("tex_", 10, 3)
	assert.Equal(t, []worker.Task{
		{Name: "tex_10", Seed: 10},
		{Name: "tex_11", Seed: 11},
		{Name: "tex_12", Seed: 12},
	}, tasks)

	assert.Empty(t, SeedTasks("tex_", 0, -1))
}

func TestJobWritesFilesAndArchive(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "textures.db")

	w, err := archive.New(dbPath, archive.Metadata{Name: "test", Format: "png", Variant: VariantBlur, Size: 32})
	require.NoError(t, err)

	gen := NewGenerator(nil)
	job := &Job{
		Generator: gen,
		Archive:   w,
		OutputDir: filepath.Join(dir, "out"),
		Output:    output.Options{Format: output.FormatBMP, Channel: output.ChannelGray},
		Base:      smallConfig(VariantBlur),
	}

	pool := worker.New(worker.Config{Workers: 2, Generator: job})
	results := pool.Run(context.Background(), SeedTasks("tex_", 1, 4))
	require.Len(t, results, 4)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, filepath.Join(dir, "out", r.Task.Name+".bmp"), r.Location)
	}
	require.NoError(t, w.Close())

	r, err := archive.OpenReader(dbPath)
	require.NoError(t, err)
	defer r.Close()

	infos, err := r.List()
	require.NoError(t, err)
	require.Len(t, infos, 4)

	data, err := r.ReadTexture("tex_3")
	require.NoError(t, err)
	got, err := output.Decode(bytes.NewReader(data), output.ChannelGray)
	require.NoError(t, err)

	cfg := smallConfig(VariantBlur)
	cfg.Seed = 3
	want, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, got.Equal(want.Final()), "archived texture matches a direct run with the task seed")
}

func TestJobArchiveOnly(t *testing.T) {
	w, err := archive.New(filepath.Join(t.TempDir(), "textures.db"), archive.Metadata{Name: "test"})
	require.NoError(t, err)
	defer w.Close()

	job := &Job{Generator: NewGenerator(nil), Archive: w, Output: output.DefaultOptions(), Base: smallConfig(VariantVoronoi)}
	loc, err := job.Generate(context.Background(), worker.Task{Name: "only", Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, "archive:only", loc)
}

func TestJobRequiresDestination(t *testing.T) {
	job := &Job{Generator: NewGenerator(nil), Base: smallConfig(VariantVoronoi)}
	_, err := job.Generate(context.Background(), worker.Task{Name: "x", Seed: 1})
	require.Error(t, err)
}
