package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"jobrag/internal/domain"
)

// QueryCache is a small LRU cache over retrieval results. Retrieval against
// an unchanged corpus is deterministic, so a cache entry is valid until its
// TTL expires. Keys cover every argument that shapes the result set.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	results   []domain.Candidate
	timestamp time.Time
}

// NewQueryCache creates a cache with the given size and TTL bounds.
func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, filters domain.Filters, limit int, maxDistance float64) string {
	data := []byte(query)
	for _, fv := range filters.Fields() {
		data = append(data, 0)
		data = append(data, fv[0]...)
		data = append(data, '=')
		data = append(data, fv[1]...)
	}
	data = append(data, 0)
	data = append(data, fmt.Sprintf("%d|%g", limit, maxDistance)...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns a cached result set if present and fresh.
func (c *QueryCache) Get(query string, filters domain.Filters, limit int, maxDistance float64) ([]domain.Candidate, bool) {
	key := cacheKey(query, filters, limit, maxDistance)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return entry.results, true
}

// Put stores a result set for the given arguments.
func (c *QueryCache) Put(query string, filters domain.Filters, limit int, maxDistance float64, results []domain.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, filters, limit, maxDistance)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{results: results, timestamp: time.Now()}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{results: results, timestamp: time.Now()}
	c.order = append(c.order, key)
}

// Size returns the number of cached result sets.
func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
