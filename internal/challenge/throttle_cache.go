package challenge

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// ThrottleCache memoizes "n" transforms for the lifetime of one resolution
// call. Failures are remembered too, so a bad value is replayed once.
type ThrottleCache struct {
	compute func(string) (string, error)

	mu      sync.RWMutex
	entries map[string]throttleEntry
	group   singleflight.Group
}

type throttleEntry struct {
	value string
	err   error
}

func NewThrottleCache(compute func(string) (string, error)) *ThrottleCache {
	return &ThrottleCache{
		compute: compute,
		entries: make(map[string]throttleEntry),
	}
}

// GetOrCompute returns the transformed value for raw, computing it at most
// once even under concurrent callers.
func (c *ThrottleCache) GetOrCompute(raw string) (string, error) {
	if e, ok := c.lookup(raw); ok {
		return e.value, e.err
	}
	v, _, _ := c.group.Do(raw, func() (any, error) {
		if e, ok := c.lookup(raw); ok {
			return e, nil
		}
		value, err := c.compute(raw)
		e := throttleEntry{value: value, err: err}
		c.mu.Lock()
		c.entries[raw] = e
		c.mu.Unlock()
		return e, nil
	})
	e := v.(throttleEntry)
	return e.value, e.err
}

// Lookup returns a previously computed value without computing.
func (c *ThrottleCache) Lookup(raw string) (string, error, bool) {
	e, ok := c.lookup(raw)
	return e.value, e.err, ok
}

func (c *ThrottleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ThrottleCache) lookup(raw string) (throttleEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[raw]
	return e, ok
}
