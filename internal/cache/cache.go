package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores raw external payloads keyed by request URL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Key derives a stable cache key from a request URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "egvia:v1:" + hex.EncodeToString(hash[:])
}
