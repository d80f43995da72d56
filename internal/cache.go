package internal

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/gnoswap-labs/eqv/internal/equiv"
)

const (
	cacheFileName = "verdict_cache.gob"
	// DefaultCacheMaxAge is how long a verdict stays valid.
	DefaultCacheMaxAge = 24 * time.Hour
)

type CacheEntry struct {
	Key          string
	Version      string
	Report       *equiv.Report
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache stores verdicts per file on disk.
type Cache struct {
	CacheDir string
	entries  map[string]CacheEntry
	mutex    sync.Mutex
	maxAge   time.Duration
	version  *semver.Version
	now      func() time.Time
}

// NewCache opens the cache in cacheDir, creating the directory if needed.
// Entries are valid only for engines compatible with version.
func NewCache(cacheDir, version string) (*Cache, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid engine version %q: %w", version, err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir: cacheDir,
		entries:  make(map[string]CacheEntry),
		maxAge:   DefaultCacheMaxAge,
		version:  v,
		now:      time.Now,
	}
	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return cache, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.CacheDir, cacheFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(filepath.Join(c.CacheDir, cacheFileName))
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// Set stores the verdict for filename under key.
func (c *Cache) Set(filename, key string, report *equiv.Report) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	c.entries[filename] = CacheEntry{
		Key:          key,
		Version:      c.version.String(),
		Report:       report,
		CreatedAt:    now,
		LastAccessed: now,
	}
	return c.save()
}

// Get returns the verdict stored for filename if it was stored under key,
// is younger than the maximum age and comes from a compatible engine.
func (c *Cache) Get(filename, key string) (*equiv.Report, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}
	if c.isEntryInvalid(entry, key) {
		delete(c.entries, filename)
		return nil, false
	}

	entry.LastAccessed = c.now()
	c.entries[filename] = entry
	return entry.Report, true
}

func (c *Cache) isEntryInvalid(entry CacheEntry, key string) bool {
	if entry.Key != key {
		return true
	}
	if c.now().Sub(entry.CreatedAt) > c.maxAge {
		return true
	}
	return !c.compatible(entry.Version)
}

// compatible reports whether a verdict written by version may be reused.
func (c *Cache) compatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return v.Major() == c.version.Major() && v.Minor() == c.version.Minor()
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
	return c.save()
}
