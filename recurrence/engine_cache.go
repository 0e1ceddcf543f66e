package recurrence

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"
)

// cacheEntry is one cached engine result: a bool for HasOccurrenceInRange or
// a []TimeOccurrence for Expand
type cacheEntry struct {
	result     any
	expiresAt  time.Time
	accessedAt time.Time
}

// OccurrenceCache memoizes engine results across calls. Unlike the per-rule
// result cache it is shared, expires entries after a TTL and is safe for
// concurrent use.
type OccurrenceCache struct {
	entries         map[string]*cacheEntry
	mutex           sync.Mutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// CacheConfig holds configuration for the occurrence cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to drop expired entries (0 = only on Set)
}

// DefaultCacheConfig provides sensible defaults for occurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewOccurrenceCache creates a cache and starts its cleanup goroutine
func NewOccurrenceCache(config CacheConfig) *OccurrenceCache {
	c := &OccurrenceCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	if c.cleanupInterval > 0 {
		go c.cleanupLoop()
	}

	return c
}

// occurrenceCacheKey hashes the operation and every input that affects its result
func occurrenceCacheKey(operation string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	writeTime := func(t time.Time) {
		write(t.Format(time.RFC3339Nano))
	}

	write(operation)
	writeTime(masterStart)
	writeTime(masterEnd)
	writeTime(rangeStart)
	writeTime(rangeEnd)
	write(info.RRULE)

	write("RDATE:" + strconv.Itoa(len(info.RDATE)))
	for _, t := range info.RDATE {
		writeTime(t)
	}
	write("EXDATE:" + strconv.Itoa(len(info.EXDATE)))
	for _, t := range info.EXDATE {
		writeTime(t)
	}
	write("EXRULE:" + strconv.Itoa(len(info.EXRULE)))
	for _, r := range info.EXRULE {
		write(r)
	}
	if info.RecurrenceID != nil {
		writeTime(*info.RecurrenceID)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result if it exists and hasn't expired
func (c *OccurrenceCache) Get(key string) (any, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	entry.accessedAt = now
	return entry.result, true
}

// Set stores a result, evicting expired and then least recently accessed
// entries when over the limit
func (c *OccurrenceCache) Set(key string, result any) {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &cacheEntry{
		result:     result,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
}

// cleanup must be called with the mutex held
func (c *OccurrenceCache) cleanup(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if c.maxEntries <= 0 || len(c.entries) <= c.maxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].accessedAt.Before(c.entries[keys[j]].accessedAt)
	})

	for _, key := range keys[:len(c.entries)-c.maxEntries] {
		delete(c.entries, key)
	}
}

func (c *OccurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup(c.now())
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call
// more than once.
func (c *OccurrenceCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *OccurrenceCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := CacheStats{TotalEntries: len(c.entries)}
	now := c.now()
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}

// CacheStats provides information about cache contents
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
