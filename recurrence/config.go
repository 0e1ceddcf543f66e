package recurrence

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxExpansionOccurrences caps the occurrences Expand returns and the
	// candidates HasOccurrenceInRange inspects (0 = unlimited)
	MaxExpansionOccurrences int

	// Logger receives engine and per-rule debug logs (nil = discard)
	Logger *slog.Logger

	// Registerer receives the engine metrics (nil = not registered)
	Registerer prometheus.Registerer
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxExpansionOccurrences: 1000,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute, // Longer cache TTL
		MaxEntries:      5000,             // More cache entries
		CleanupInterval: 10 * time.Minute, // Less frequent cleanup
	},

	MaxExpansionOccurrences: 500, // Fewer occurrences checked for speed
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},

	MaxExpansionOccurrences: 200,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	MaxExpansionOccurrences: 5000, // More thorough without cache
}
