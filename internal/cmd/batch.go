package cmd

import (
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/seamlesstex/internal/archive"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/pipeline"
	"github.com/MeKo-Tech/seamlesstex/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate many textures with consecutive seeds",
	Long: `Generate --count final textures with seeds --first-seed, --first-seed+1, ...
in parallel, into a folder or an archive database.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addGenerationFlags(batchCmd, "batch")
	addOutputFlags(batchCmd, "batch")

	batchCmd.Flags().Int("count", 16, "Number of textures to generate")
	batchCmd.Flags().Int64("first-seed", 1, "Seed of the first texture")
	batchCmd.Flags().String("name-prefix", "tex_", "Texture name prefix; names are <prefix><seed>")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel texture workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar during batch generation")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some textures fail")
	batchCmd.Flags().String("format", "folder", "Output format: folder or archive")
	batchCmd.Flags().String("output-file", "", "Archive database path for --format=archive")

	bindFlags(batchCmd, []flagBinding{
		{"batch.count", "count"},
		{"batch.first_seed", "first-seed"},
		{"batch.name_prefix", "name-prefix"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
		{"batch.format", "format"},
		{"batch.output_file", "output-file"},
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cfg := generationConfig(viper.GetViper(), "batch")
	count := viper.GetInt("batch.count")
	firstSeed := viper.GetInt64("batch.first_seed")
	namePrefix := viper.GetString("batch.name_prefix")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")
	format := viper.GetString("batch.format")
	outputFile := viper.GetString("batch.output_file")
	outputDir := viper.GetString("output-dir")

	if format != "folder" && format != "archive" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'archive'", format)
	}
	if format == "archive" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=archive")
	}
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	opts, err := outputOptions(viper.GetViper(), "batch")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Parallelism comes from the texture pool; each texture runs its passes on one worker.
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	cfg.Workers = 1

	job := &pipeline.Job{
		Generator: pipeline.NewGenerator(logger),
		Output:    opts,
		Base:      cfg,
	}

	if format == "archive" {
		w, err := archive.New(outputFile, archive.Metadata{
			Name:        "seamlesstex",
			Description: "Seamless procedural textures",
			Format:      output.FormatPNG,
			Variant:     cfg.Variant,
			Version:     "1.0",
			Size:        cfg.Size,
		})
		if err != nil {
			return fmt.Errorf("failed to create archive writer: %w", err)
		}
		defer w.Close()
		job.Archive = w
	} else {
		job.OutputDir = outputDir
	}

	tasks := pipeline.SeedTasks(namePrefix, firstSeed, count)

	logger.Info("Starting batch texture generation",
		"textures", len(tasks),
		"first_seed", firstSeed,
		"variant", cfg.Variant,
		"size", cfg.Size,
		"workers", workers,
		"format", format,
	)

	ctx, cancel := signalContext()
	defer cancel()

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  job,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Texture generation failed", "name", r.Task.Name, "seed", r.Task.Seed, "error", r.Err)
			continue
		}
		logger.Debug("Texture generated", "name", r.Task.Name, "location", r.Location, "elapsed", r.Elapsed)
	}

	logger.Info(progress.Summary())

	if job.Archive != nil {
		if err := job.Archive.Flush(); err != nil {
			return fmt.Errorf("failed to flush archive: %w", err)
		}
		logger.Info("Archive written", "path", outputFile, "textures", job.Archive.Written())
	}

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some textures failed to generate, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d textures failed to generate", failedCount)
	}

	return nil
}
