package playerjs

import (
	"context"
	"fmt"
	"time"
)

// Observer receives one notification per program lookup.
type Observer interface {
	ObserveDiscovery(hit bool, elapsed time.Duration, err error)
}

// Loader fetches player assets and discovers their programs through a
// caller-owned ProgramCache.
type Loader struct {
	resolver Resolver
	cache    *ProgramCache
	observer Observer
}

func NewLoader(resolver Resolver, cache *ProgramCache, observer Observer) *Loader {
	if cache == nil {
		cache = NewProgramCache(DefaultProgramTTL)
	}
	return &Loader{resolver: resolver, cache: cache, observer: observer}
}

func (l *Loader) Cache() *ProgramCache {
	return l.cache
}

// Load returns the programs for the asset at playerURL.
func (l *Loader) Load(ctx context.Context, playerURL string) (*Programs, error) {
	key := l.resolver.AssetKey(playerURL)
	start := time.Now()
	p, hit, err := l.cache.Load(ctx, key, func(ctx context.Context) (*Programs, error) {
		body, err := l.resolver.GetPlayerJS(ctx, playerURL)
		if err != nil {
			return nil, fmt.Errorf("fetch player asset: %w", err)
		}
		p, err := Discover(body)
		if err != nil {
			return nil, err
		}
		p.AssetKey = key
		return p, nil
	})
	if l.observer != nil {
		l.observer.ObserveDiscovery(hit, time.Since(start), err)
	}
	return p, err
}

// Refresh drops the cached asset and programs for playerURL and discovers
// them again.
func (l *Loader) Refresh(ctx context.Context, playerURL string) (*Programs, error) {
	l.cache.Invalidate(l.resolver.AssetKey(playerURL))
	l.resolver.Forget(playerURL)
	return l.Load(ctx, playerURL)
}
