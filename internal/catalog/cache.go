package catalog

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"gridstack/internal/models"
)

type cacheEntry struct {
	products []models.Product
	expires  time.Time
}

// listCache holds product lists keyed by type-id filter and limit.
type listCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newListCache(ttl time.Duration) *listCache {
	return &listCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *listCache) enabled() bool { return c != nil && c.ttl > 0 }

func listKey(typeIDs []string, limit int) string {
	ids := slices.Clone(typeIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	return strings.Join(ids, ",") + "|" + strconv.Itoa(limit)
}

func (c *listCache) get(key string) ([]models.Product, bool) {
	if !c.enabled() {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return slices.Clone(e.products), true
}

func (c *listCache) put(key string, products []models.Product) {
	if !c.enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{products: slices.Clone(products), expires: c.now().Add(c.ttl)}
}

func (c *listCache) purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
