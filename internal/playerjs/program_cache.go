package playerjs

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// DefaultProgramTTL bounds how long discovered programs are reused.
const DefaultProgramTTL = 6 * time.Hour

// ProgramCache holds discovered programs keyed by asset identity. It is
// owned by the caller and safe for concurrent use; concurrent loads of the
// same key share one discovery.
type ProgramCache struct {
	items *gocache.Cache
	group singleflight.Group
}

// NewProgramCache returns an empty cache. A non-positive ttl keeps entries
// until they are invalidated.
func NewProgramCache(ttl time.Duration) *ProgramCache {
	return &ProgramCache{items: newGoCache(ttl)}
}

func (c *ProgramCache) Get(key string) (*Programs, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Programs)
	return p, ok
}

func (c *ProgramCache) Put(key string, p *Programs) {
	if p == nil {
		return
	}
	c.items.SetDefault(key, p)
}

func (c *ProgramCache) Invalidate(key string) {
	c.items.Delete(key)
	c.group.Forget(key)
}

func (c *ProgramCache) Len() int {
	return c.items.ItemCount()
}

// Load returns the cached programs for key or runs discover once for all
// concurrent callers. Failed discoveries are not cached. hit reports
// whether the result came from the cache.
func (c *ProgramCache) Load(ctx context.Context, key string, discover func(context.Context) (*Programs, error)) (p *Programs, hit bool, err error) {
	if p, ok := c.Get(key); ok {
		return p, true, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		if p, ok := c.Get(key); ok {
			return p, nil
		}
		// The discovery outlives a cancelled caller but keeps its deadline.
		shared := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			shared, cancel = context.WithDeadline(shared, deadline)
			defer cancel()
		}
		p, err := discover(shared)
		if err != nil {
			return nil, err
		}
		c.Put(key, p)
		return p, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*Programs), false, nil
	}
}
