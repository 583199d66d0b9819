// Package cache keeps the last applied evaluation on disk so a restarted
// dashboard can show the previous run while the first fetch is in flight.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/spboyer/evaldash/internal/metrics"
)

// Cache stores one snapshot per key under dir. An empty dir disables it.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// Entry is a cached evaluation and when it was stored.
type Entry struct {
	Evaluation *metrics.Evaluation `json:"evaluation"`
	StoredAt   time.Time           `json:"stored_at"`
	BaseURL    string              `json:"base_url"`
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key identifies the latest-run snapshot of one backend. Curves change the
// shape of the document, so they are part of the key.
func Key(baseURL string, includeCurves bool) string {
	h := sha256.New()
	_ = writeString(h, baseURL)
	_ = writeString(h, strconv.FormatBool(includeCurves))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached snapshot if it exists.
func (c *Cache) Get(key string) (*Entry, bool) {
	if c == nil || c.dir == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		// Cache miss
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Evaluation == nil {
		// Invalid cache entry, treat as miss
		return nil, false
	}
	return &entry, true
}

// Put stores ev under key.
func (c *Cache) Put(key, baseURL string, ev *metrics.Evaluation) error {
	if c == nil || c.dir == "" || ev == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(Entry{Evaluation: ev, StoredAt: time.Now().UTC(), BaseURL: baseURL}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	// Write then rename so a reader never sees a partial file.
	path := c.cachePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached snapshots.
func (c *Cache) Clear() error {
	if c == nil || c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Safety check: only remove a directory that holds nothing but snapshots.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
		}
		if filepath.Ext(entry.Name()) != ".json" {
			return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeString(w io.Writer, s string) error {
	_, err := fmt.Fprintf(w, "%d:%s;", len(s), s)
	return err
}
