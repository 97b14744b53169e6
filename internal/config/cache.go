package config

import "time"

// CacheConfig defines settings for the response cache middleware.  Only
// catalog reads (rooms, room types, services) are cached; availability is
// always computed live.  When Enabled is false or Redis is unreachable the
// middleware is a pass-through.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  A short TTL is the default
// because room descriptions change rarely but price edits should show up
// quickly.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      envSet("CACHE_METHODS", "GET"),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "resort:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.Enabled = false
    }
    return cfg
}
