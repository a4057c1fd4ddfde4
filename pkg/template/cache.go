package template

import "sync"

// Cache memoises compiled templates by their source string.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Compiled
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Compiled)}
}

// Compile returns the cached template for raw, compiling it on first use.
// Failures are not cached.
func (c *Cache) Compile(raw string) (*Compiled, error) {
	c.mu.RLock()
	compiled, ok := c.entries[raw]
	c.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := Compile(raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[raw]; ok {
		return existing, nil
	}
	if c.entries == nil {
		c.entries = make(map[string]*Compiled)
	}
	c.entries[raw] = compiled
	return compiled, nil
}

// Len reports the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
