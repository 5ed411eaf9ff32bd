package factcache

import "sync"

// MemoryCache is an in-process fact cache, cleared when the run ends.
type MemoryCache struct {
	mu    sync.RWMutex
	facts map[string]map[string]interface{}
}

// NewMemoryCache builds an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{facts: make(map[string]map[string]interface{})}
}

// Get implements Cache.
func (c *MemoryCache) Get(hostname string) (map[string]interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	facts, ok := c.facts[hostname]
	return facts, ok
}

// Update implements Cache.
func (c *MemoryCache) Update(hostname string, facts map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facts[hostname] = facts
	return nil
}
