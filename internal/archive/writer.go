package archive

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// FlushEvery is the number of pending textures that triggers a commit.
const FlushEvery = 32

// SchemaVersion is stored in PRAGMA user_version of every archive.
const SchemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS metadata (
		name  TEXT PRIMARY KEY,
		value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS textures (
		name         TEXT NOT NULL,
		seed         INTEGER NOT NULL,
		size         INTEGER NOT NULL,
		variant      TEXT NOT NULL,
		texture_data BLOB NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS texture_index ON textures (name)`,
	fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion),
}

// row is an Entry whose PNG has already been gzipped.
type row struct {
	Entry
	blob []byte
}

// Writer appends textures to an archive. Textures are gzipped by the calling
// goroutine and committed in groups of FlushEvery; it is safe for concurrent use.
type Writer struct {
	db *sql.DB

	mu      sync.Mutex
	pending []row
	written int
}

// New opens or creates the archive at path and replaces its metadata with meta.
func New(path string, meta Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}

	for _, stmt := range append([]string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}, schema...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("prepare archive %s: %w", path, err)
		}
	}

	if err := replaceMetadata(db, meta); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive metadata: %w", err)
	}

	return &Writer{db: db, pending: make([]row, 0, FlushEvery)}, nil
}

func replaceMetadata(db *sql.DB, meta Metadata) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
		return err
	}
	for key, value := range meta.ToMap() {
		if _, err := tx.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return tx.Commit()
}

// WriteTexture queues e and commits the queue once it holds FlushEvery textures.
// A texture with an existing name replaces the stored one.
func (w *Writer) WriteTexture(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("archive: texture name must not be empty")
	}
	blob, err := gzipBytes(e.Data)
	if err != nil {
		return fmt.Errorf("archive: compress %s: %w", e.Name, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, row{Entry: e, blob: blob})
	if len(w.pending) < FlushEvery {
		return nil
	}
	return w.commit()
}

// Flush commits every queued texture.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commit()
}

// Written returns the number of textures committed so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// commit writes the queue in one transaction. w.mu must be held.
func (w *Writer) commit() error {
	if len(w.pending) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	insert, err := tx.Prepare(`INSERT OR REPLACE INTO textures
		(name, seed, size, variant, texture_data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer insert.Close()

	for _, r := range w.pending {
		if _, err := insert.Exec(r.Name, r.Seed, r.Size, r.Variant, r.blob); err != nil {
			return fmt.Errorf("archive: store %s: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit %d textures: %w", len(w.pending), err)
	}

	w.written += len(w.pending)
	w.pending = w.pending[:0]
	return nil
}

// Close commits what is queued and closes the database.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	if err := w.db.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("archive: close: %w", err)
	}
	return flushErr
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
