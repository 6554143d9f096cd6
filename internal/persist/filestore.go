// Package persist implements explicit snapshot sinks for the EntityGraph:
// a plain JSON file store and an optional Postgres JSONB store. Both are
// caller-triggered dump/load operations, not continuous durability: the
// snapshot remains an explicit point-in-time dump.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arc-self/dds-statsbackend/internal/graph"
)

// FileStore writes/reads EntityGraph snapshots as plain JSON files under a
// directory, one file per snapshot name.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if absent.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes g's snapshot to <dir>/<name>.json.
func (f *FileStore) Save(name string, g *graph.Graph) error {
	snap := g.Dump()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("filestore: marshal snapshot: %w", err)
	}
	path := f.path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}
	return nil
}

// Load reads <dir>/<name>.json and replaces g's state with it.
func (f *FileStore) Load(name string, g *graph.Graph) error {
	path := f.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("filestore: read %s: %w", path, err)
	}
	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("filestore: unmarshal %s: %w", path, err)
	}
	g.Load(snap)
	return nil
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}
