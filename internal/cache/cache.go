package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	manifestVersion = 1
	manifestName    = "manifest.json"
)

// Manifest records every artifact the cache holds, keyed by logical name
// with paths relative to the cache root
type Manifest struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Files     map[string]string `json:"files"`
}

// Cache is a read-through disk cache for upstream artifacts. Content writes
// go through a temp file and rename so readers never see partial files, and
// the manifest is replaced the same way.
type Cache struct {
	dir string

	mu       sync.Mutex
	manifest Manifest
}

// Open loads the cache at dir, creating the directory and an empty manifest
// on first use
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:      dir,
		manifest: Manifest{Version: manifestVersion, Files: make(map[string]string)},
	}

	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if err := json.Unmarshal(raw, &c.manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if c.manifest.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", c.manifest.Version)
	}
	if c.manifest.Files == nil {
		c.manifest.Files = make(map[string]string)
	}
	return c, nil
}

// Dir returns the cache root
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the absolute path recorded for key when the file still
// exists on disk
func (c *Cache) Path(key string) (string, bool) {
	c.mu.Lock()
	rel, ok := c.manifest.Files[key]
	c.mu.Unlock()
	if !ok {
		return "", false
	}

	full := filepath.Join(c.dir, filepath.FromSlash(rel))
	if _, err := os.Stat(full); err != nil {
		return "", false
	}
	return full, true
}

// Put writes content for key at rel and records it in the manifest
func (c *Cache) Put(key, rel string, write func(io.Writer) error) (string, error) {
	full := filepath.Join(c.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".cache-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", key, err)
	}

	if err := c.record(key, rel); err != nil {
		return "", err
	}

	log.Debug().
		Str("key", key).
		Str("path", rel).
		Msg("Cached file")
	return full, nil
}

// Snapshot returns a copy of the current manifest
func (c *Cache) Snapshot() Manifest {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make(map[string]string, len(c.manifest.Files))
	for k, v := range c.manifest.Files {
		files[k] = v
	}
	m := c.manifest
	m.Files = files
	return m
}

func (c *Cache) record(key, rel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifest.Files[key] = filepath.ToSlash(rel)
	c.manifest.UpdatedAt = time.Now().UTC()
	return c.saveManifestLocked()
}

func (c *Cache) saveManifestLocked() error {
	raw, err := json.MarshalIndent(c.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("failed to create manifest temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, manifestName)); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}
