// Package cache provides the in-memory freshness cache for aggregated
// query results.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/akarpovich/newsbrief/pkg/domain"
)

// Fresh is a TTL cache keyed by normalized query text. Staleness is checked
// lazily on read: a stale entry stays in the map until the next Put for the
// same key overwrites it. Distinct keys accumulate for the process lifetime,
// there is no eviction.
type Fresh struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time // injectable clock for tests
}

type entry struct {
	articles  []domain.Article
	fetchedAt time.Time
}

// NewFresh creates a cache with the given TTL
func NewFresh(ttl time.Duration) *Fresh {
	return &Fresh{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key normalizes a query into its cache key
func Key(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached articles for query if the entry is still fresh
func (c *Fresh) Get(query string) ([]domain.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[Key(query)]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.articles, true
}

// Put stores articles for query, replacing any previous entry wholesale
func (c *Fresh) Put(query string, articles []domain.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(query)] = entry{articles: articles, fetchedAt: c.now()}
}

// Clear drops every entry
func (c *Fresh) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, fresh or stale
func (c *Fresh) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
