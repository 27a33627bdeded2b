package smartyaml

import (
	"sync"
	"time"
)

// ContentCache memoizes parsed documents across loads. Keys combine the
// canonical path, the modification time and a BLAKE3 hash of the content,
// so a changed file never hits a stale entry. Documents are still read
// through the security gate; only decoding is saved. It is safe for
// concurrent use and may drop entries at any time.
type ContentCache struct {
	config CacheConfig

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	hits   int64
	misses int64
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid. Zero keeps entries
	// until they are evicted.
	// Default: 0.
	TTL time.Duration

	// MaxEntries is the maximum number of cached documents.
	// When exceeded, the least recently used entry is evicted.
	// Default: 512.
	MaxEntries int
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: DefaultCacheMaxEntries,
	}
}

// cacheEntry represents a cached parse tree.
type cacheEntry struct {
	value      any
	cachedAt   time.Time
	accessedAt time.Time
	key        string
}

// NewContentCache creates a cache.
func NewContentCache(config CacheConfig) *ContentCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}
	return &ContentCache{
		config: config,
		cache:  make(map[string]*cacheEntry),
	}
}

// Get returns the value cached under key.
func (s *ContentCache) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok || !s.isValid(entry) {
		if ok {
			delete(s.cache, key)
		}
		s.misses++
		return nil, false
	}
	entry.accessedAt = time.Now()
	s.hits++
	return entry.value, true
}

// Put stores value under key.
func (s *ContentCache) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cache[key]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := time.Now()
	s.cache[key] = &cacheEntry{
		value:      value,
		cachedAt:   now,
		accessedAt: now,
		key:        key,
	}
}

// InvalidateAll clears the entire cache.
func (s *ContentCache) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string]*cacheEntry)
	s.mu.Unlock()
}

// Stats returns cache statistics.
func (s *ContentCache) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var validCount int
	for _, entry := range s.cache {
		if s.isValid(entry) {
			validCount++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		ValidEntries: validCount,
		Hits:         s.hits,
		Misses:       s.misses,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	ValidEntries int
	Hits         int64
	Misses       int64
}

// isValid checks if a cache entry is still valid.
// Caller must hold the lock.
func (s *ContentCache) isValid(entry *cacheEntry) bool {
	if s.config.TTL <= 0 {
		return true
	}
	return time.Since(entry.cachedAt) < s.config.TTL
}

// evictOldest removes the least recently accessed entry.
// Caller must hold the lock.
func (s *ContentCache) evictOldest() {
	var oldest *cacheEntry
	for _, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldest = entry
		}
	}

	if oldest != nil {
		delete(s.cache, oldest.key)
	}
}
