// Package cache provides response and evaluation-result caching:
// an in-memory TTL cache for recommendation responses and a layered
// memory+disk cache for evaluation runs, which are expensive to
// recompute and stable for a given catalog and weight table.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the interface shared by every cache layer.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from an ordered list of inputs (marshaled
// query, weight table, parameters). Any change to any part yields a
// different key.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0}) // separator so part boundaries matter
	}
	return "recase:v1:" + hex.EncodeToString(h.Sum(nil))
}
