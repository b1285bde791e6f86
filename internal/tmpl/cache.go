package tmpl

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/logging"
)

// maxReloadAttempts bounds how often a load is retried when the file keeps
// changing while it is being parsed.
const maxReloadAttempts = 3

// Cache maps template names to parsed templates, reloading an entry when
// the file's modification time moves past the cached one. Concurrent loads
// of the same name are collapsed into one.
type Cache struct {
	fs         afero.Fs
	root       string
	compile    CompileFunc
	maxEntries int
	logger     logging.Logger

	mutex   sync.RWMutex
	entries map[string]*cacheEntry
	// LRU doubly-linked list with dummy head and tail
	head *cacheEntry
	tail *cacheEntry

	group singleflight.Group

	hits      int64
	misses    int64
	loads     int64
	evictions int64
}

type cacheEntry struct {
	key  string
	tmpl *Template
	prev *cacheEntry
	next *cacheEntry
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries    int   `json:"entries"`
	MaxEntries int   `json:"max_entries"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Loads      int64 `json:"loads"`
	Evictions  int64 `json:"evictions"`
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMaxEntries bounds the cache, evicting the least recently used
// template beyond n entries. n <= 0 means unbounded.
func WithMaxEntries(n int) CacheOption {
	return func(c *Cache) { c.maxEntries = n }
}

func WithLogger(logger logging.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger.WithComponent("tmpl") }
}

// NewCache returns a cache reading templates below root on fs.
func NewCache(fs afero.Fs, root string, compile CompileFunc, opts ...CacheOption) *Cache {
	c := &Cache{
		fs:      fs,
		root:    root,
		compile: compile,
		logger:  logging.Nop(),
		entries: make(map[string]*cacheEntry),
		head:    &cacheEntry{},
		tail:    &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Root returns the application directory the cache reads from.
func (c *Cache) Root() string { return c.root }

// Exists reports whether name is a regular file below the root.
func (c *Cache) Exists(name string) bool {
	info, err := c.fs.Stat(c.abs(name))

	return err == nil && info.Mode().IsRegular()
}

// Get returns the template for name, a slash-separated path relative to
// the root. The returned template is shared; use Copy before attaching
// request state.
func (c *Cache) Get(name string) (*Template, error) {
	name = path.Clean(name)

	info, err := c.stat(name)
	if err != nil {
		return nil, err
	}

	if t := c.lookup(name); t != nil && !info.ModTime().After(t.ModTime) {
		atomic.AddInt64(&c.hits, 1)
		return t, nil
	}

	atomic.AddInt64(&c.misses, 1)

	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		return c.load(name)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Template), nil
}

// load reads and parses name. The template is stamped with the mtime seen
// before reading; if the file changed during the parse it is read again.
func (c *Cache) load(name string) (*Template, error) {
	var (
		t     *Template
		mtime time.Time
	)

	for attempt := 1; attempt <= maxReloadAttempts; attempt++ {
		before, err := c.stat(name)
		if err != nil {
			return nil, err
		}
		// Some filesystems return a live FileInfo; take the value now.
		mtime = before.ModTime()

		if cached := c.lookup(name); cached != nil && !mtime.After(cached.ModTime) {
			return cached, nil
		}

		content, readErr := afero.ReadFile(c.fs, c.abs(name))
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return nil, errors.NewTemplateNotFound(name, readErr)
			}
			return nil, errors.NewIOError(errors.CodeReadFailed, "failed to read template "+name, readErr)
		}

		start := time.Now()
		t, err = Parse(name, content, c.compile)
		if err != nil {
			return nil, err
		}

		after, statErr := c.fs.Stat(c.abs(name))
		if statErr != nil || after.ModTime().Equal(mtime) {
			c.logger.Debug(context.Background(), "template loaded",
				"name", name,
				"duration", time.Since(start),
				"attempt", attempt)
			break
		}
	}

	t.ModTime = mtime
	atomic.AddInt64(&c.loads, 1)

	return c.install(name, t), nil
}

// install stores t unless a newer template is already cached, and returns
// the template left in the cache.
func (c *Cache) install(name string, t *Template) *Template {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.entries[name]; ok {
		if existing.tmpl.ModTime.After(t.ModTime) {
			return existing.tmpl
		}
		existing.tmpl = t
		c.moveToFront(existing)
		return t
	}

	entry := &cacheEntry{key: name, tmpl: t}
	c.entries[name] = entry
	c.addToFront(entry)
	c.evictIfNeeded()

	return t
}

func (c *Cache) lookup(name string) *Template {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[name]
	if !ok {
		return nil
	}
	c.moveToFront(entry)

	return entry.tmpl
}

// Invalidate drops the cached template for name.
func (c *Cache) Invalidate(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.entries[path.Clean(name)]; ok {
		c.removeFromList(entry)
		delete(c.entries, entry.key)
	}
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries:    c.Len(),
		MaxEntries: c.maxEntries,
		Hits:       atomic.LoadInt64(&c.hits),
		Misses:     atomic.LoadInt64(&c.misses),
		Loads:      atomic.LoadInt64(&c.loads),
		Evictions:  atomic.LoadInt64(&c.evictions),
	}
}

func (c *Cache) stat(name string) (os.FileInfo, error) {
	info, err := c.fs.Stat(c.abs(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewTemplateNotFound(name, err)
		}
		return nil, errors.NewIOError(errors.CodeStatFailed, "failed to stat template "+name, err)
	}
	if info.IsDir() {
		return nil, errors.NewTemplateNotFound(name, nil)
	}

	return info, nil
}

func (c *Cache) abs(name string) string {
	return filepath.Join(c.root, filepath.FromSlash(name))
}

// evictIfNeeded drops least recently used entries beyond maxEntries.
func (c *Cache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	for len(c.entries) > c.maxEntries && c.tail.prev != c.head {
		lru := c.tail.prev
		c.removeFromList(lru)
		delete(c.entries, lru.key)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *Cache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) removeFromList(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (c *Cache) moveToFront(entry *cacheEntry) {
	c.removeFromList(entry)
	c.addToFront(entry)
}
