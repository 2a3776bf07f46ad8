package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/seamlesstex/internal/archive"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/pipeline"
	"github.com/MeKo-Tech/seamlesstex/internal/preview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one seamless texture set",
	Long: `Generate the distance field, noise field and refined texture for one seed.

Every stage is written to --output-dir as <prefix><stage>.<ext>. Files are only
written once all stages succeeded.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addGenerationFlags(generateCmd, "generate")
	addOutputFlags(generateCmd, "generate")

	generateCmd.Flags().Int64("seed", pipeline.DefaultConfig().Seed, "Deterministic seed for sites and noise")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel row workers (default: number of CPUs)")
	generateCmd.Flags().Bool("keep-rounds", false, "Also write every intermediate refinement round")
	generateCmd.Flags().String("prefix", "", "File name prefix for every written stage")
	generateCmd.Flags().Int("preview", 0, "Write an NxN seam-check mosaic of the final texture (0 disables)")
	generateCmd.Flags().Int("preview-size", 512, "Edge length of the preview mosaic (0 keeps native resolution)")
	generateCmd.Flags().String("archive", "", "Also store the final texture in this archive database")

	bindFlags(generateCmd, []flagBinding{
		{"generate.seed", "seed"},
		{"generate.workers", "workers"},
		{"generate.keep_rounds", "keep-rounds"},
		{"generate.prefix", "prefix"},
		{"generate.preview", "preview"},
		{"generate.preview_size", "preview-size"},
		{"generate.archive", "archive"},
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	cfg := generationConfig(viper.GetViper(), "generate")
	cfg.Workers = viper.GetInt("generate.workers")
	cfg.KeepRounds = viper.GetBool("generate.keep_rounds")
	outputDir := viper.GetString("output-dir")
	prefix := viper.GetString("generate.prefix")
	previewTiles := viper.GetInt("generate.preview")
	previewSize := viper.GetInt("generate.preview_size")
	archivePath := viper.GetString("generate.archive")

	opts, err := outputOptions(viper.GetViper(), "generate")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if previewTiles < 0 {
		return fmt.Errorf("preview must be non-negative")
	}

	logger.Info("Starting texture generation",
		"variant", cfg.Variant,
		"size", cfg.Size,
		"points", cfg.Points,
		"rounds", cfg.Rounds,
		"seed", cfg.Seed,
		"output_dir", outputDir,
	)

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	gen := pipeline.NewGenerator(logger)
	res, err := gen.Generate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to generate texture: %w", err)
	}

	paths, err := gen.WriteStages(res, outputDir, prefix, opts)
	if err != nil {
		return err
	}

	finalPath := paths[len(paths)-1]
	final := res.Final()
	if previewTiles > 0 {
		mosaic, err := preview.Mosaic(final, previewTiles, previewSize)
		if err != nil {
			return fmt.Errorf("failed to build preview: %w", err)
		}
		path := filepath.Join(outputDir, prefix+"preview"+opts.Ext())
		if err := output.WriteFile(path, mosaic, opts); err != nil {
			return err
		}
		paths = append(paths, path)
		logger.Info("Seam check", "score", fmt.Sprintf("%.3f", preview.SeamScore(final)), "preview", path)
	}

	if archivePath != "" {
		if err := archiveTexture(archivePath, res, prefix, opts); err != nil {
			return err
		}
	}

	logger.Info("Texture set generated",
		"files", len(paths),
		"final", finalPath,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func archiveTexture(path string, res *pipeline.Result, prefix string, opts output.Options) error {
	cfg := res.Config
	w, err := archive.New(path, archive.Metadata{
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

	opts.Format = output.FormatPNG
	data, err := output.EncodeBytes(res.Final(), opts)
	if err != nil {
		w.Close()
		return fmt.Errorf("failed to encode texture: %w", err)
	}

	name := fmt.Sprintf("%sseed_%d", prefix, cfg.Seed)
	if err := w.WriteTexture(archive.Entry{Name: name, Seed: cfg.Seed, Size: cfg.Size, Variant: cfg.Variant, Data: data}); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Info("Texture archived", "archive", path, "name", name)
	return nil
}
