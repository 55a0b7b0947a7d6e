// Package cache stores fetched response bodies between runs. It is opt-in:
// a gather never depends on what a previous gather cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/polemica/internal/model"
)

// Cache stores opaque bodies under string keys
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "polemica:v1:"

// Key builds a cache key from the parts that identify a response, usually the
// URL and the user agent it was requested with
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// New returns the cache described by cfg, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}
