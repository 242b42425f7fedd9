package config

import "time"

// StatusCacheConfig configures the single-key Redis cache in front of
// Engine.DumpStatus.
type StatusCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Key     string
}

// LoadStatusCacheConfig reads environment variables to build a
// StatusCacheConfig. Defaults are used when variables are not set.
func LoadStatusCacheConfig() StatusCacheConfig {
	return StatusCacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		TTL:     envDur("CACHE_TTL", 2*time.Second),
		Key:     getenv("CACHE_KEY", "booker:status"),
	}
}
