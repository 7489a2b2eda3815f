package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/startupscout/internal/model"
)

// Cache stores raw model completions keyed by CompletionKey
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CompletionKey derives a stable key from everything that determines a completion
func CompletionKey(provider, modelName, prompt string) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "startupscout:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg. It returns nil when caching is disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}
