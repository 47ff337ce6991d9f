package pbsetup

import (
	"fmt"
	"os"
	"path/filepath"
)

// CacheKey identifies one artifact in the cache: a concrete release
// tag plus the platform it was built for. Two different versions or
// platforms never collide.
type CacheKey struct {
	Tag      string
	Platform Platform
}

// String returns the cache slot name, e.g. "v0.30.3_linux_amd64".
func (k CacheKey) String() string {
	return k.Tag + "_" + k.Platform.String()
}

// Cache is a local store of extracted release artifacts, keyed by
// (tag, os, arch). Entries are published atomically: a slot either
// holds a fully materialized artifact or does not exist, so no reader
// ever observes a partial write.
type Cache struct {
	root string
}

// NewCache returns a cache rooted at dir, creating it if absent.
// The root is always passed explicitly so tests can run against
// temporary directories.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &Cache{root: dir}, nil
}

// DefaultCacheDir returns the well-known cache location under the
// user's home directory, ~/.pb_cache.
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".pb_cache"), nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) slot(key CacheKey) string {
	return filepath.Join(c.root, key.String())
}

// Has reports whether a committed artifact exists for key.
func (c *Cache) Has(key CacheKey) bool {
	_, err := os.Stat(c.slot(key))
	return err == nil
}

// Path returns the path to the cached binary for key. The entry is
// validated on every read: a slot that exists but holds no readable,
// non-empty binary fails with ErrCacheCorrupt and must be demoted by
// the caller, never served.
func (c *Cache) Path(key CacheKey) (string, error) {
	bin := filepath.Join(c.slot(key), key.Platform.BinaryName())
	info, err := os.Stat(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCacheCorrupt, key, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: %s: binary is empty", ErrCacheCorrupt, key)
	}
	return bin, nil
}

// Demote removes the canonical slot for key so a corrupt entry can be
// fetched again. Removing an absent slot is not an error.
func (c *Cache) Demote(key CacheKey) error {
	if err := os.RemoveAll(c.slot(key)); err != nil {
		return fmt.Errorf("demote cache entry %s: %w", key, err)
	}
	return nil
}

// WriteHandle is an exclusively owned staging directory for one cache
// key. Content written under Dir becomes visible to readers only when
// the handle is committed.
type WriteHandle struct {
	key  CacheKey
	dir  string
	done bool
}

// Dir returns the staging directory.
func (h *WriteHandle) Dir() string {
	return h.dir
}

// BeginWrite allocates a staging directory for key inside the cache
// root, so the final rename stays within one volume.
func (c *Cache) BeginWrite(key CacheKey) (*WriteHandle, error) {
	dir, err := os.MkdirTemp(c.root, "tmp-"+key.String()+"-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &WriteHandle{key: key, dir: dir}, nil
}

// Commit atomically publishes the staged content into the canonical
// slot for the handle's key. The rename is the sole publication point.
// When a concurrent writer committed the same key first, the staged
// copy is discarded and the existing entry stands: both writes are
// individually complete, so either outcome is a valid cache state.
func (c *Cache) Commit(h *WriteHandle) error {
	if h.done {
		return fmt.Errorf("write handle for %s already finished", h.key)
	}
	h.done = true

	if err := os.Rename(h.dir, c.slot(h.key)); err != nil {
		if c.Has(h.key) {
			// Lost the race to another committer.
			_ = os.RemoveAll(h.dir)
			return nil
		}
		_ = os.RemoveAll(h.dir)
		return fmt.Errorf("publish cache entry %s: %w", h.key, err)
	}
	return nil
}

// Abort discards the staging directory, leaving the cache state for
// the key unchanged (absent unless previously committed).
func (c *Cache) Abort(h *WriteHandle) {
	if h.done {
		return
	}
	h.done = true
	_ = os.RemoveAll(h.dir)
}
