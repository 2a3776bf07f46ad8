package archive

import (
	"errors"
	"path/filepath"
	"testing"
)

func writeArchive(t *testing.T, meta Metadata, entries ...Entry) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.texarchive")
	w, err := New(dbPath, meta)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	for _, e := range entries {
		if err := w.WriteTexture(e); err != nil {
			t.Fatalf("Failed to write texture %q: %v", e.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	return dbPath
}

func TestReader_RoundTrip(t *testing.T) {
	entries := []Entry{
		{Name: "tex_002", Seed: 2, Size: 32, Variant: "refined", Data: []byte("second texture")},
		{Name: "tex_001", Seed: 1, Size: 32, Variant: "refined", Data: []byte("first texture")},
		{Name: "tex_003", Seed: 3, Size: 64, Variant: "voronoi", Data: []byte("third texture")},
	}
	dbPath := writeArchive(t, Metadata{Name: "Test"}, entries...)

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	for _, e := range entries {
		data, err := r.ReadTexture(e.Name)
		if err != nil {
			t.Fatalf("Failed to read texture %q: %v", e.Name, err)
		}
		if string(data) != string(e.Data) {
			t.Errorf("Texture %q data mismatch: got %q, want %q", e.Name, data, e.Data)
		}
	}

	infos, err := r.List()
	if err != nil {
		t.Fatalf("Failed to list textures: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 textures, got %d", len(infos))
	}
	if infos[0].Name != "tex_001" || infos[2].Name != "tex_003" {
		t.Errorf("Expected textures ordered by name, got %+v", infos)
	}
	if infos[2].Seed != 3 || infos[2].Size != 64 || infos[2].Variant != "voronoi" {
		t.Errorf("Unexpected info for tex_003: %+v", infos[2])
	}
	if infos[0].Bytes == 0 {
		t.Error("Expected stored byte count to be reported")
	}
}

func TestReader_Metadata(t *testing.T) {
	expected := Metadata{
		Name:        "Test Archive",
		Description: "Test description",
		Format:      "png",
		Variant:     "noise-blur",
		Version:     "1.0",
		Size:        128,
	}
	dbPath := writeArchive(t, expected)

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	meta, err := r.Metadata()
	if err != nil {
		t.Fatalf("Failed to read metadata: %v", err)
	}
	if meta != expected {
		t.Errorf("Metadata mismatch: got %+v, want %+v", meta, expected)
	}
}

func TestReader_NotFound(t *testing.T) {
	dbPath := writeArchive(t, Metadata{Name: "Test"})

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	defer r.Close()

	_, err = r.ReadTexture("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	infos, err := r.List()
	if err != nil {
		t.Fatalf("Failed to list textures: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty archive, got %d textures", len(infos))
	}
}
