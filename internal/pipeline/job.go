package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/MeKo-Tech/seamlesstex/internal/archive"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/worker"
)

// Job adapts a Generator to the worker pool: every task runs Base with the
// task's seed and stores the final stage in OutputDir, Archive or both.
type Job struct {
	Generator *Generator
	Archive   *archive.Writer
	OutputDir string
	Output    output.Options
	Base      Config
}

var _ worker.Generator = (*Job)(nil)

// Generate implements worker.Generator. The returned location is the written
// file path, or archive:<name> when only the archive receives the texture.
func (j *Job) Generate(ctx context.Context, task worker.Task) (string, error) {
	if j.OutputDir == "" && j.Archive == nil {
		return "", fmt.Errorf("job has neither an output directory nor an archive")
	}

	cfg := j.Base
	cfg.Seed = task.Seed
	cfg.KeepRounds = false

	res, err := j.Generator.Generate(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("texture %s: %w", task.Name, err)
	}
	final := res.Final()

	location := "archive:" + task.Name
	if j.OutputDir != "" {
		location = filepath.Join(j.OutputDir, task.Name+j.Output.Ext())
		if err := output.WriteFile(location, final, j.Output); err != nil {
			return "", err
		}
	}

	if j.Archive != nil {
		opts := j.Output
		opts.Format = output.FormatPNG
		data, err := output.EncodeBytes(final, opts)
		if err != nil {
			return "", fmt.Errorf("failed to encode texture %s: %w", task.Name, err)
		}
		err = j.Archive.WriteTexture(archive.Entry{
			Name:    task.Name,
			Seed:    task.Seed,
			Size:    cfg.Size,
			Variant: cfg.Variant,
			Data:    data,
		})
		if err != nil {
			return "", fmt.Errorf("failed to archive texture %s: %w", task.Name, err)
		}
	}

	return location, nil
}

// SeedTasks builds count tasks with consecutive seeds starting at first,
// named <prefix><seed>.
func SeedTasks(prefix string, first int64, count int) []worker.Task {
	tasks := make([]worker.Task, 0, max(count, 0))
	for i := 0; i < count; i++ {
		seed := first + int64(i)
		tasks = append(tasks, worker.Task{Name: fmt.Sprintf("%s%d", prefix, seed), Seed: seed})
	}
	return tasks
}
