package cmd

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // register PNG for DecodeConfig
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/MeKo-Tech/seamlesstex/internal/archive"
	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack a folder of PNG textures into an archive database",
	Long:  `Convert a folder of generated PNG textures into a single archive database.`,
	RunE:  runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().String("input-dir", "./textures", "Input directory containing PNG textures")
	packCmd.Flags().StringP("output", "o", "", "Output archive file path (required)")
	packCmd.Flags().String("name", "seamlesstex", "Archive name")
	packCmd.Flags().String("description", "Seamless procedural textures", "Archive description")
	packCmd.Flags().String("variant", "", "Variant recorded for every packed texture")

	bindFlags(packCmd, []flagBinding{
		{"pack.input_dir", "input-dir"},
		{"pack.output", "output"},
		{"pack.name", "name"},
		{"pack.description", "description"},
		{"pack.variant", "variant"},
	})
}

func runPack(cmd *cobra.Command, args []string) error {
	inputDir := viper.GetString("pack.input_dir")
	outputFile := viper.GetString("pack.output")
	name := viper.GetString("pack.name")
	description := viper.GetString("pack.description")
	variant := viper.GetString("pack.variant")

	if logger == nil {
		initLogging()
	}

	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	textures, err := scanTextureDirectory(inputDir)
	if err != nil {
		return fmt.Errorf("failed to scan texture directory: %w", err)
	}
	if len(textures) == 0 {
		return fmt.Errorf("no textures found in %s", inputDir)
	}

	logger.Info("Packing textures", "input_dir", inputDir, "output", outputFile, "count", len(textures))

	writer, err := archive.New(outputFile, archive.Metadata{
		Name:        name,
		Description: description,
		Format:      output.FormatPNG,
		Variant:     variant,
		Version:     "1.0",
		Size:        textures[0].size,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive writer: %w", err)
	}
	defer writer.Close()

	var skipped int
	for _, tex := range textures {
		data, err := os.ReadFile(tex.path)
		if err != nil {
			logger.Error("Failed to read texture", "path", tex.path, "error", err)
			skipped++
			continue
		}

		size, err := pngSize(data)
		if err != nil {
			logger.Error("Skipping unreadable PNG", "path", tex.path, "error", err)
			skipped++
			continue
		}

		if err := writer.WriteTexture(archive.Entry{
			Name:    tex.name,
			Seed:    tex.seed,
			Size:    size,
			Variant: variant,
			Data:    data,
		}); err != nil {
			return fmt.Errorf("failed to write texture %s: %w", tex.name, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush textures: %w", err)
	}

	logger.Info("Pack complete", "output", outputFile, "textures", writer.Written(), "skipped", skipped)
	return nil
}

type textureFile struct {
	name string
	path string
	seed int64
	size int
}

var textureFilePattern = regexp.MustCompile(`^(.*?)(\d*)\.png$`)

// parseTextureFilename splits a file name like tex_42.png into the texture
// name (tex_42) and the trailing seed (42, or 0 if there is none).
func parseTextureFilename(filename string) (name string, seed int64, ok bool) {
	m := textureFilePattern.FindStringSubmatch(filename)
	if m == nil || m[1]+m[2] == "" {
		return "", 0, false
	}
	if m[2] != "" {
		seed, _ = strconv.ParseInt(m[2], 10, 64)
	}
	return m[1] + m[2], seed, true
}

// scanTextureDirectory returns every PNG directly inside dir, sorted by name.
// The size of the first texture is read from its header.
func scanTextureDirectory(dir string) ([]textureFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var textures []textureFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, seed, ok := parseTextureFilename(e.Name())
		if !ok {
			continue
		}
		textures = append(textures, textureFile{name: name, seed: seed, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(textures, func(i, j int) bool { return textures[i].name < textures[j].name })

	if len(textures) > 0 {
		data, err := os.ReadFile(textures[0].path)
		if err != nil {
			return nil, err
		}
		if textures[0].size, err = pngSize(data); err != nil {
			return nil, fmt.Errorf("%s: %w", textures[0].path, err)
		}
	}

	return textures, nil
}

func pngSize(data []byte) (int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	if format != "png" {
		return 0, fmt.Errorf("unexpected format %q", format)
	}
	return cfg.Width, nil
}
