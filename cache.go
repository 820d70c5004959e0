package wikiengine

import (
	"sync"
	"time"

	"github.com/eringen/wikiengine/entries"
)

// TitleCache is an in-memory cache of the entry title list with TTL.
type TitleCache struct {
	mu      sync.RWMutex
	titles  []string
	fetched time.Time
	ttl     time.Duration
	store   *entries.Store
}

// NewTitleCache creates a TitleCache backed by the given entry store.
func NewTitleCache(s *entries.Store, ttl time.Duration) *TitleCache {
	return &TitleCache{store: s, ttl: ttl}
}

func (c *TitleCache) valid() bool {
	return c.titles != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read lists the directory again.
func (c *TitleCache) Invalidate() {
	c.mu.Lock()
	c.titles = nil
	c.mu.Unlock()
}

// List returns the sorted entry titles. Callers must not modify the slice.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *TitleCache) List() []string {
	c.mu.RLock()
	if c.valid() {
		titles := c.titles
		c.mu.RUnlock()
		return titles
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		c.titles = c.store.List()
		c.fetched = time.Now()
	}
	return c.titles
}
