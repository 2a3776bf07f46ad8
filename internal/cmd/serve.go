package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/seamlesstex/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve archived textures (optionally generating textures on-demand)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addGenerationFlags(serveCmd, "serve")

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("archive", "", "Archive database to serve under /textures/")
	serveCmd.Flags().String("cache-dir", "", "Directory for on-demand textures (defaults to --output-dir)")
	serveCmd.Flags().Bool("generate-missing", true, "Serve /generate/{seed}.png, generating and caching textures on-demand")
	serveCmd.Flags().Bool("disable-cache", false, "Always regenerate textures (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent texture generations (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 2*time.Minute, "Timeout per texture generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served textures")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	bindFlags(serveCmd, []flagBinding{
		{"serve.addr", "addr"},
		{"serve.archive", "archive"},
		{"serve.cache_dir", "cache-dir"},
		{"serve.generate_missing", "generate-missing"},
		{"serve.disable_cache", "disable-cache"},
		{"serve.max_concurrent_generations", "max-concurrent-generations"},
		{"serve.generation_timeout", "generation-timeout"},
		{"serve.cache_control", "cache-control"},
		{"serve.png_compression", "png-compression"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	archivePath := viper.GetString("serve.archive")
	cacheDir := viper.GetString("serve.cache_dir")
	if cacheDir == "" {
		cacheDir = viper.GetString("output-dir")
	}
	generateMissing := viper.GetBool("serve.generate_missing")
	cacheControl := viper.GetString("serve.cache_control")

	if archivePath == "" && !generateMissing {
		return fmt.Errorf("nothing to serve: pass --archive or enable --generate-missing")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if archivePath != "" {
		ah, err := server.NewArchiveHandler(server.ArchiveConfig{
			ArchivePath:  archivePath,
			CacheControl: cacheControl,
		}, logger)
		if err != nil {
			return err
		}
		defer ah.Close()
		mux.Handle(server.ArchivePrefix, ah)
	}

	if generateMissing {
		cfg := generationConfig(viper.GetViper(), "serve")
		od, err := server.NewOnDemandTextures(server.OnDemandConfig{
			CacheDir:          cacheDir,
			CacheControl:      cacheControl,
			PNGCompression:    viper.GetString("serve.png_compression"),
			Base:              cfg,
			MaxConcurrent:     viper.GetInt("serve.max_concurrent_generations"),
			GenerationTimeout: viper.GetDuration("serve.generation_timeout"),
			DisableCache:      viper.GetBool("serve.disable_cache"),
		}, logger)
		if err != nil {
			return err
		}
		mux.Handle(server.GeneratePrefix, od)
		mux.Handle("/status", od.StatusHandler())
	}

	logger.Info("texture server listening",
		"addr", addr,
		"archive", archivePath,
		"cache_dir", cacheDir,
		"generate_missing", generateMissing,
	)

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
