package categorizer

import (
	"strings"
	"sync"
)

// MerchantCache maps cleaned merchants to taxonomy labels for the duration
// of one run. Lookups ignore case and surrounding space.
type MerchantCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMerchantCache returns an empty cache.
func NewMerchantCache() *MerchantCache {
	return &MerchantCache{entries: make(map[string]string)}
}

func cacheKey(merchant string) string {
	return strings.ToUpper(strings.TrimSpace(merchant))
}

// Get returns the cached label for merchant.
func (c *MerchantCache) Get(merchant string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	label, ok := c.entries[cacheKey(merchant)]
	return label, ok
}

// Put records label for merchant, replacing any earlier entry.
func (c *MerchantCache) Put(merchant, label string) {
	key := cacheKey(merchant)
	if key == "" || label == "" {
		return
	}
	c.mu.Lock()
	c.entries[key] = label
	c.mu.Unlock()
}

// Len returns the number of cached merchants.
func (c *MerchantCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
