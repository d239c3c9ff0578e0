// Package freshness answers polling-based "has this file changed" queries by
// tracking the last observed modification time per normalized path.
package freshness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sentinel errors for path handling. A missing file is an expected transient
// state while a client polls, so callers should treat ErrNotFound as a
// structured non-updated result rather than a hard fault.
var (
	ErrEmptyPath = errors.New("path parameter is required")
	ErrNotFound  = errors.New("file not found")
)

// Result reports the outcome of a freshness check.
type Result struct {
	Updated bool
	ModTime time.Time
}

// Cache maps normalized filesystem paths to the newest modification time
// observed so far. Entries accumulate for the process lifetime.
type Cache struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{seen: make(map[string]time.Time)}
}

// Normalize resolves a raw path against the working directory and collapses
// separators and dot segments, so two spellings of the same file share one
// cache entry. Shared with the image serving path so both agree on the
// filesystem target.
func Normalize(rawPath string) (string, error) {
	if rawPath == "" {
		return "", ErrEmptyPath
	}

	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

// Check compares the file's current modification time against the cached
// value. A strictly newer time advances the entry and reports an update; the
// first observation of an existing file always reports one. The compare and
// store happen under the lock so the cached value only ever moves forward.
func (c *Cache) Check(rawPath string) (Result, error) {
	path, err := Normalize(rawPath)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Result{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	modTime := info.ModTime()

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.seen[path]
	if modTime.After(prev) {
		c.seen[path] = modTime
		return Result{Updated: true, ModTime: modTime}, nil
	}

	return Result{Updated: false, ModTime: prev}, nil
}

// Len reports how many paths have been observed.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
