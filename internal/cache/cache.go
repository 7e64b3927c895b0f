package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a URL. Keys are stable across runs so
// repeated scrapes reuse previously fetched pages.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "ocean:v1:" + hex.EncodeToString(hash[:])
}
