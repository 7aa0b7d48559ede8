package playerjs

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultAssetTTL bounds how long fetched player assets are kept.
const DefaultAssetTTL = 6 * time.Hour

type Cache interface {
	Get(key string) (string, bool)
	Set(key string, jsBody string)
	Delete(key string)
}

type memoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache() Cache {
	return NewMemoryCacheWithTTL(DefaultAssetTTL)
}

// NewMemoryCacheWithTTL returns an in-memory asset cache. A non-positive
// ttl keeps entries until they are deleted.
func NewMemoryCacheWithTTL(ttl time.Duration) Cache {
	return &memoryCache{items: newGoCache(ttl)}
}

func newGoCache(ttl time.Duration) *gocache.Cache {
	if ttl <= 0 {
		return gocache.New(gocache.NoExpiration, 0)
	}
	return gocache.New(ttl, 2*ttl)
}

func (c *memoryCache) Get(key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	body, ok := v.(string)
	return body, ok
}

func (c *memoryCache) Set(key string, jsBody string) {
	c.items.SetDefault(key, jsBody)
}

func (c *memoryCache) Delete(key string) {
	c.items.Delete(key)
}
