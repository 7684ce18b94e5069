package changetracker

import "sync"

// dirPathCache maps a directory's file reference to its full resolved
// path, so a file-level ADD/UPDATE event (which only carries the file's
// own name and its parent's file reference) can be turned into a full
// path without re-walking the MFT. Built proactively from
// pathresolve.Resolve's directory subset at index-build time, per
// SPEC_FULL.md §4.4's resolution of spec.md's open question — not
// populated lazily on first miss.
type dirPathCache struct {
	mu    sync.RWMutex
	paths map[uint64]string
}

func newDirPathCache() *dirPathCache {
	return &dirPathCache{paths: make(map[uint64]string)}
}

func (c *dirPathCache) Get(fileRef uint64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.paths[fileRef]
	return p, ok
}

func (c *dirPathCache) Set(fileRef uint64, path string) {
	c.mu.Lock()
	c.paths[fileRef] = path
	c.mu.Unlock()
}

func (c *dirPathCache) Remove(fileRef uint64) {
	c.mu.Lock()
	delete(c.paths, fileRef)
	c.mu.Unlock()
}

// Reset replaces the entire cache contents, used after a full rebuild.
func (c *dirPathCache) Reset(paths map[uint64]string) {
	c.mu.Lock()
	c.paths = paths
	c.mu.Unlock()
}
