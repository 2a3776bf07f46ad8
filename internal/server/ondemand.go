package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/seamlesstex/internal/output"
	"github.com/MeKo-Tech/seamlesstex/internal/pipeline"
)

// GeneratePrefix is the URL prefix the on-demand handler serves.
const GeneratePrefix = "/generate/"

// OnDemandConfig configures on-demand generation.
type OnDemandConfig struct {
	CacheDir          string
	CacheControl      string
	PNGCompression    string
	Base              pipeline.Config
	MaxConcurrent     int
	GenerationTimeout time.Duration
	DisableCache      bool
}

// OnDemandTextures generates textures for /generate/{seed}.png on first request
// and caches them on disk.
type OnDemandTextures struct {
	gen    *pipeline.Generator
	logger *slog.Logger
	sem    chan struct{}
	locks  sync.Map
	cfg    OnDemandConfig

	activeRenders atomic.Int32
	queuedRenders atomic.Int32
	totalRendered atomic.Int64
	totalFailed   atomic.Int64
	cacheHits     atomic.Int64
}

// Status is the JSON document served by StatusHandler.
type Status struct {
	ActiveRenders int   `json:"active_renders"`
	QueuedRenders int   `json:"queued_renders"`
	TotalRendered int64 `json:"total_rendered"`
	TotalFailed   int64 `json:"total_failed"`
	CacheHits     int64 `json:"cache_hits"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewOnDemandTextures validates the base configuration and applies defaults.
func NewOnDemandTextures(cfg OnDemandConfig, logger *slog.Logger) (*OnDemandTextures, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./textures"
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 2 * time.Minute
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation config: %w", err)
	}
	opts := pngOptions(cfg.PNGCompression)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &OnDemandTextures{
		gen:    pipeline.NewGenerator(logger),
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		cfg:    cfg,
	}, nil
}

// Status returns generation counters.
func (t *OnDemandTextures) Status() Status {
	return Status{
		ActiveRenders: int(t.activeRenders.Load()),
		QueuedRenders: int(t.queuedRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		CacheHits:     t.cacheHits.Load(),
		MaxConcurrent: t.cfg.MaxConcurrent,
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (t *OnDemandTextures) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

func (t *OnDemandTextures) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	name, ok := parseTexturePath(GeneratePrefix, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	seed, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid seed %q", name), http.StatusBadRequest)
		return
	}

	cfg := t.cfg.Base
	cfg.Seed = seed
	if v := r.URL.Query().Get("variant"); v != "" {
		cfg.Variant = v
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := fmt.Sprintf("%s_%d.png", cfg.Variant, seed)
	fullPath := filepath.Join(t.cfg.CacheDir, filename)
	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if !t.cfg.DisableCache && fileExists(fullPath) {
		t.cacheHits.Add(1)
		http.ServeFile(w, r, fullPath)
		return
	}

	mu := t.getLock(filename)
	mu.Lock()
	defer mu.Unlock()

	if !t.cfg.DisableCache && fileExists(fullPath) {
		t.cacheHits.Add(1)
		http.ServeFile(w, r, fullPath)
		return
	}

	t.queuedRenders.Add(1)
	select {
	case t.sem <- struct{}{}:
		t.queuedRenders.Add(-1)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedRenders.Add(-1)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	res, err := t.gen.Generate(ctx, cfg)
	t.activeRenders.Add(-1)
	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to generate texture", "seed", seed, "variant", cfg.Variant, "error", err)
		http.Error(w, fmt.Sprintf("failed to generate texture %d: %v", seed, err), http.StatusInternalServerError)
		return
	}

	if err := output.WriteFile(fullPath, res.Final(), pngOptions(t.cfg.PNGCompression)); err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to write texture", "path", fullPath, "error", err)
		http.Error(w, "failed to store texture", http.StatusInternalServerError)
		return
	}
	t.totalRendered.Add(1)
	t.log().Info("texture generated on-demand", "seed", seed, "variant", cfg.Variant, "ms", time.Since(start).Milliseconds())

	http.ServeFile(w, r, fullPath)
}

func (t *OnDemandTextures) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *OnDemandTextures) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

func pngOptions(compression string) output.Options {
	opts := output.DefaultOptions()
	if compression != "" {
		opts.PNGCompression = compression
	}
	return opts
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
