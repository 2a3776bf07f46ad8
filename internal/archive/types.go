// Package archive stores generated textures in a single SQLite database.
package archive

import (
	"errors"
	"strconv"
)

// ErrNotFound is returned when a texture name is not present in the archive.
var ErrNotFound = errors.New("texture not found")

// Metadata contains archive-wide metadata fields.
type Metadata struct {
	Name        string // Human-readable archive identifier
	Description string // Human-readable description
	Format      string // Texture encoding (png)
	Variant     string // Pipeline variant used for every texture
	Version     string // Version string
	Size        int    // Texture edge length in pixels
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.Variant != "" {
		result["variant"] = m.Variant
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if m.Size > 0 {
		result["size"] = strconv.Itoa(m.Size)
	}

	return result
}

// metadataFromMap is the inverse of ToMap. Unknown keys are ignored.
func metadataFromMap(values map[string]string) Metadata {
	meta := Metadata{
		Name:        values["name"],
		Description: values["description"],
		Format:      values["format"],
		Variant:     values["variant"],
		Version:     values["version"],
	}
	if v, ok := values["size"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.Size = i
		}
	}
	return meta
}

// Entry is a single texture to be written.
type Entry struct {
	Name    string
	Variant string
	Data    []byte // PNG data (gzip-compressed before storage)
	Seed    int64
	Size    int
}

// Info describes a stored texture without its pixel data.
type Info struct {
	Name    string `json:"name"`
	Variant string `json:"variant"`
	Seed    int64  `json:"seed"`
	Size    int    `json:"size"`
	Bytes   int    `json:"bytes"`
}
