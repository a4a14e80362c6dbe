package wordfill

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the template cache
type CacheConfig struct {
	// MaxSize is the maximum number of templates to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached templates. 0 means no expiration.
	TTL time.Duration
}

// TemplateCache keeps prepared templates in LRU order. Cached templates are
// owned by the cache: it closes them on eviction, so callers must not.
type TemplateCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
	now    func() time.Time
}

type cacheEntry struct {
	key      string
	template *PreparedTemplate
	expiry   time.Time
	element  *list.Element
}

// NewTemplateCache creates a template cache sized from the global configuration
func NewTemplateCache() *TemplateCache {
	config := GetGlobalConfig()
	return NewTemplateCacheWithConfig(CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewTemplateCacheWithConfig creates a new template cache with the given configuration
func NewTemplateCacheWithConfig(config CacheConfig) *TemplateCache {
	return &TemplateCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
		now:    time.Now,
	}
}

// Enabled reports whether the cache stores anything.
func (tc *TemplateCache) Enabled() bool {
	return tc != nil && tc.config.MaxSize > 0
}

// Get retrieves a template from the cache. Expired entries are dropped.
func (tc *TemplateCache) Get(key string) (*PreparedTemplate, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, exists := tc.cache[key]
	if !exists {
		return nil, false
	}
	if tc.expired(entry) {
		tc.removeLocked(entry)
		return nil, false
	}
	tc.lru.MoveToFront(entry.element)
	return entry.template, true
}

// Set adds a template to the cache, evicting the least recently used one when full.
func (tc *TemplateCache) Set(key string, template *PreparedTemplate) {
	if !tc.Enabled() {
		return
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	expiry := time.Time{}
	if tc.config.TTL > 0 {
		expiry = tc.now().Add(tc.config.TTL)
	}

	if existing, exists := tc.cache[key]; exists {
		if existing.template != template && existing.template != nil {
			existing.template.Close()
		}
		existing.template = template
		existing.expiry = expiry
		tc.lru.MoveToFront(existing.element)
		return
	}

	for tc.lru.Len() >= tc.config.MaxSize {
		oldest := tc.lru.Back()
		if oldest == nil {
			break
		}
		tc.removeLocked(oldest.Value.(*cacheEntry))
	}

	entry := &cacheEntry{key: key, template: template, expiry: expiry}
	entry.element = tc.lru.PushFront(entry)
	tc.cache[key] = entry
}

// Remove removes a template from the cache and closes it
func (tc *TemplateCache) Remove(key string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if entry, exists := tc.cache[key]; exists {
		tc.removeLocked(entry)
	}
}

func (tc *TemplateCache) removeLocked(entry *cacheEntry) {
	if entry.template != nil {
		entry.template.Close()
	}
	delete(tc.cache, entry.key)
	tc.lru.Remove(entry.element)
}

func (tc *TemplateCache) expired(entry *cacheEntry) bool {
	return tc.config.TTL > 0 && tc.now().After(entry.expiry)
}

// Clear removes all templates from the cache and closes them
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	for _, entry := range tc.cache {
		if entry.template != nil {
			entry.template.Close()
		}
	}
	tc.cache = make(map[string]*cacheEntry)
	tc.lru = list.New()
}

// Size returns the current number of cached templates
func (tc *TemplateCache) Size() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.cache)
}

// Close closes all templates in the cache and clears it
func (tc *TemplateCache) Close() error {
	tc.Clear()
	return nil
}
