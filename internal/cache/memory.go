package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/costpulse/costpulse/internal/domain/snapshot"
)

type memoryEntry struct {
	snap      *snapshot.NormalizedCostSnapshot
	expiresAt time.Time
}

// MemoryCache is the default in-process snapshot cache. A single mutex
// gives the atomic check-then-set the concurrency model requires.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func cacheKey(accountID int64, providerID string) string {
	return fmt.Sprintf("%d:%s", accountID, providerID)
}

func (c *MemoryCache) Get(ctx context.Context, accountID int64, providerID string) (*snapshot.NormalizedCostSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(accountID, providerID)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.snap, true
}

func (c *MemoryCache) Set(ctx context.Context, s *snapshot.NormalizedCostSnapshot, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(s.AccountID, s.ProviderID)] = memoryEntry{
		snap:      s,
		expiresAt: c.now().Add(ttl),
	}
}

func (c *MemoryCache) Invalidate(ctx context.Context, accountID int64, providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(accountID, providerID))
}
