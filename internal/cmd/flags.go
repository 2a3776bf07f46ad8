package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type flagBinding struct {
	key  string
	flag string
}

func bindFlags(c *cobra.Command, bindings []flagBinding) {
	for _, bf := range bindings {
		if err := viper.BindPFlag(bf.key, c.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// addGenerationFlags registers the pipeline parameters shared by every
// command that generates textures, bound under section.
func addGenerationFlags(c *cobra.Command, section string) {
	d := pipeline.DefaultConfig()
	f := c.Flags()

	f.String("variant", d.Variant, "Pipeline variant (voronoi, blur, noise-blur, refined)")
	f.Int("size", d.Size, "Texture edge length in pixels (square)")
	f.Int("points", d.Points, "Number of Voronoi sites")
	f.Int("blur-radius", d.BlurRadius, "Base blur radius R; round k samples R*2^k pixels each side")
	f.Int("rounds", d.Rounds, "Refinement rounds K (refined variant)")
	f.String("direction", d.Direction, "Blur direction source for the refined variant (distance, noise)")
	f.String("noise", d.NoisePrimitive, "Noise primitive (perlin, torus; torus is seamless at integer frequencies)")
	f.Int("octaves", d.Noise.Octaves, "Noise octaves")
	f.Float64("persistence", d.Noise.Persistence, "Noise amplitude falloff per octave, in (0,1)")
	f.Float64("lacunarity", d.Noise.Lacunarity, "Noise frequency growth per octave, > 1")
	f.Float64("base-frequency", d.Noise.BaseFrequency, "Frequency of the first noise octave")
	f.Bool("invert", false, "Make sites bright instead of dark in the final texture")

	bindFlags(c, []flagBinding{
		{section + ".variant", "variant"},
		{section + ".size", "size"},
		{section + ".points", "points"},
		{section + ".blur_radius", "blur-radius"},
		{section + ".rounds", "rounds"},
		{section + ".direction", "direction"},
		{section + ".noise", "noise"},
		{section + ".octaves", "octaves"},
		{section + ".persistence", "persistence"},
		{section + ".lacunarity", "lacunarity"},
		{section + ".base_frequency", "base-frequency"},
		{section + ".invert", "invert"},
	})
}

// generationConfig reads the parameters registered by addGenerationFlags.
// Keys that were never set keep their default.
func generationConfig(v *viper.Viper, section string) pipeline.Config {
	cfg := pipeline.DefaultConfig()
	key := func(name string) (string, bool) {
		k := section + "." + name
		return k, v.IsSet(k)
	}

	if k, ok := key("variant"); ok {
		cfg.Variant = v.GetString(k)
	}
	if k, ok := key("size"); ok {
		cfg.Size = v.GetInt(k)
	}
	if k, ok := key("points"); ok {
		cfg.Points = v.GetInt(k)
	}
	if k, ok := key("blur_radius"); ok {
		cfg.BlurRadius = v.GetInt(k)
	}
	if k, ok := key("rounds"); ok {
		cfg.Rounds = v.GetInt(k)
	}
	if k, ok := key("direction"); ok {
		cfg.Direction = v.GetString(k)
	}
	if k, ok := key("noise"); ok {
		cfg.NoisePrimitive = v.GetString(k)
	}
	if k, ok := key("octaves"); ok {
		cfg.Noise.Octaves = v.GetInt(k)
	}
	if k, ok := key("persistence"); ok {
		cfg.Noise.Persistence = v.GetFloat64(k)
	}
	if k, ok := key("lacunarity"); ok {
		cfg.Noise.Lacunarity = v.GetFloat64(k)
	}
	if k, ok := key("base_frequency"); ok {
		cfg.Noise.BaseFrequency = v.GetFloat64(k)
	}
	if k, ok := key("invert"); ok {
		cfg.Invert = v.GetBool(k)
	}
	if k, ok := key("seed"); ok {
		cfg.Seed = v.GetInt64(k)
	}
	return cfg
}

// addOutputFlags registers the image encoding flags bound under section.
func addOutputFlags(c *cobra.Command, section string) {
	d := output.DefaultOptions()
	c.Flags().String("image-format", d.Format, "Image format (png, tiff, bmp)")
	c.Flags().String("channel", d.Channel, "Pixel layout (gray, rgb, red)")
	c.Flags().String("png-compression", d.PNGCompression, "PNG compression (default, speed, best, none)")

	bindFlags(c, []flagBinding{
		{section + ".image_format", "image-format"},
		{section + ".channel", "channel"},
		{section + ".png_compression", "png-compression"},
	})
}

func outputOptions(v *viper.Viper, section string) (output.Options, error) {
	opts := output.DefaultOptions()
	if k := section + ".image_format"; v.IsSet(k) {
		opts.Format = v.GetString(k)
	}
	if k := section + ".channel"; v.IsSet(k) {
		opts.Channel = v.GetString(k)
	}
	if k := section + ".png_compression"; v.IsSet(k) {
		opts.PNGCompression = v.GetString(k)
	}
	if err := opts.Validate(); err != nil {
		return output.Options{}, err
	}
	return opts, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			if logger != nil {
				logger.Info("Received interrupt signal, cancelling...")
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
