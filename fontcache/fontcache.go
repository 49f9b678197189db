// Package fontcache provides a process-wide cache of font file bytes.
//
// A Cache is keyed by file path. The first Get for a given path reads the
// file from disk; later calls return the same backing buffer. Reads may
// proceed in parallel; the first miss for a given path holds the writer
// lock for the duration of the file read.
package fontcache

import (
	"os"
	"sync"
)

// Cache memoizes font file bytes by path. The zero value is ready to use.
type Cache struct {
	mu    sync.RWMutex
	bytes map[string][]byte
}

// New returns an initialized Cache. Construction is explicit; there is no
// hidden package-level singleton.
func New() *Cache {
	return &Cache{bytes: make(map[string][]byte)}
}

// Get returns the bytes for path, reading the file on first access and
// memoizing the result for subsequent calls. A failed read (missing file,
// permission error, ...) returns a nil slice; the caller treats that as
// "font load failed" and skips the font.
func (c *Cache) Get(path string) []byte {
	c.mu.RLock()
	if b, ok := c.bytes[path]; ok {
		c.mu.RUnlock()
		return b
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Someone else may have populated it while we waited for the writer lock.
	if b, ok := c.bytes[path]; ok {
		return b
	}

	if c.bytes == nil {
		c.bytes = make(map[string][]byte)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.bytes[path] = nil
		return nil
	}
	c.bytes[path] = data
	return data
}

// Drop removes path from the cache, forcing the next Get to re-read the
// file from disk.
func (c *Cache) Drop(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bytes, path)
}
