// Package server exposes generated textures over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/MeKo-Tech/seamlesstex/internal/archive"
)

// ArchivePrefix is the URL prefix the archive handler serves.
const ArchivePrefix = "/textures/"

// ArchiveHandler serves textures from an archive database.
type ArchiveHandler struct {
	reader       *archive.Reader
	logger       *slog.Logger
	cacheControl string
}

// ArchiveConfig configures the archive handler.
type ArchiveConfig struct {
	ArchivePath  string
	CacheControl string
}

// Index is the JSON document served at the archive prefix.
type Index struct {
	Metadata archive.Metadata `json:"metadata"`
	Textures []archive.Info   `json:"textures"`
}

// NewArchiveHandler opens the archive and returns a handler for it.
func NewArchiveHandler(cfg ArchiveConfig, logger *slog.Logger) (*ArchiveHandler, error) {
	reader, err := archive.OpenReader(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=3600"
	}

	return &ArchiveHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// ServeHTTP serves the JSON index at the prefix and textures at <prefix><name>.png.
func (h *ArchiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == ArchivePrefix || r.URL.Path == strings.TrimSuffix(ArchivePrefix, "/") {
		h.serveIndex(w)
		return
	}

	name, ok := parseTexturePath(ArchivePrefix, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.serveTexture(w, name)
}

func (h *ArchiveHandler) serveIndex(w http.ResponseWriter) {
	meta, err := h.reader.Metadata()
	if err != nil {
		h.log().Error("Failed to read archive metadata", "error", err)
		http.Error(w, "failed to read archive", http.StatusInternalServerError)
		return
	}
	textures, err := h.reader.List()
	if err != nil {
		h.log().Error("Failed to list textures", "error", err)
		http.Error(w, "failed to read archive", http.StatusInternalServerError)
		return
	}
	if textures == nil {
		textures = []archive.Info{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(Index{Metadata: meta, Textures: textures}); err != nil {
		h.log().Error("Failed to encode index", "error", err)
	}
}

func (h *ArchiveHandler) serveTexture(w http.ResponseWriter, name string) {
	data, err := h.reader.ReadTexture(name)
	if errors.Is(err, archive.ErrNotFound) {
		http.Error(w, "Texture not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read texture", "name", name, "error", err)
		http.Error(w, "failed to read texture", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the archive reader.
func (h *ArchiveHandler) Close() error {
	return h.reader.Close()
}

func (h *ArchiveHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// parseTexturePath extracts the texture name from a path like /textures/tex_001.png.
func parseTexturePath(prefix, requestPath string) (string, bool) {
	if !strings.HasPrefix(requestPath, prefix) {
		return "", false
	}

	rest := strings.TrimPrefix(requestPath, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}

	base := path.Base(rest)
	if !strings.HasSuffix(base, ".png") {
		return "", false
	}

	name := strings.TrimSuffix(base, ".png")
	if name == "" {
		return "", false
	}
	return name, true
}
