package fleetapi

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/fleetdesk/fleetdesk/internal/domain/vehicle"
)

// defaultListTTL keeps list reads fresh enough for an interactive console
// while absorbing the dashboard/list/report triple-fetch on navigation.
const defaultListTTL = 5 * time.Second

// listCacheKey hashes the list query into a cache key.
func listCacheKey(skip, limit int) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(fmt.Sprintf("%d|%d", skip, limit))
	return h.Sum64()
}

type listEntry struct {
	vehicles  []vehicle.Vehicle
	expiresAt time.Time
}

// listCache is a TTL cache for vehicle list responses. Any write to the
// vehicle collection invalidates the whole cache; correctness beats
// cleverness at this size.
type listCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]listEntry
}

func newListCache(ttl time.Duration) *listCache {
	if ttl <= 0 {
		ttl = defaultListTTL
	}
	return &listCache{
		ttl:     ttl,
		entries: make(map[uint64]listEntry),
	}
}

func (c *listCache) get(key uint64) ([]vehicle.Vehicle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.vehicles, true
}

func (c *listCache) put(key uint64, vehicles []vehicle.Vehicle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = listEntry{
		vehicles:  vehicles,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *listCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
