// internal/fx/cache.go
package fx

import (
	"sync"
	"time"

	"fxwallet/internal/domain"

	"github.com/shopspring/decimal"
)

type cacheEntry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// RateCache is an in-memory TTL cache of exchange rates keyed by ordered
// currency pair. Safe for concurrent use.
type RateCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewRateCache creates a cache whose entries expire after ttl.
func NewRateCache(ttl time.Duration) *RateCache {
	return &RateCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func pairKey(from, to domain.Currency) string {
	return string(from) + ":" + string(to)
}

// Get returns the cached rate for the ordered pair, if present and unexpired.
func (c *RateCache) Get(from, to domain.Currency) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[pairKey(from, to)]
	if !ok || time.Now().After(entry.expiresAt) {
		return decimal.Zero, false
	}
	return entry.rate, true
}

// Set stores the rate for the ordered pair with a fresh expiry.
func (c *RateCache) Set(from, to domain.Currency, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[pairKey(from, to)] = cacheEntry{
		rate:      rate,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear drops all cached rates.
func (c *RateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
