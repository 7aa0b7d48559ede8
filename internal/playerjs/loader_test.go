package playerjs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingObserver struct {
	mu   sync.Mutex
	hits []bool
	errs []error
}

func (o *recordingObserver) ObserveDiscovery(hit bool, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits = append(o.hits, hit)
	o.errs = append(o.errs, err)
}

func fixtureServer(t *testing.T, body string, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader_CachesProgramsPerAsset(t *testing.T) {
	var requests atomic.Int32
	srv := fixtureServer(t, loadFixture(t, "synthetic_basejs_fixture.js"), &requests)
	resolver := NewResolver(srv.Client(), NewMemoryCache(), ResolverConfig{BaseURL: srv.URL})
	obs := &recordingObserver{}
	loader := NewLoader(resolver, NewProgramCache(time.Hour), obs)

	ctx := context.Background()
	first, err := loader.Load(ctx, "/s/player/0004de42/player_ias.vflset/en_US/base.js")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := loader.Load(ctx, "/s/player/0004de42/player_ias.vflset/de_DE/base.js")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if first != second {
		t.Fatalf("expected the same cached programs for both locales")
	}
	if first.AssetKey != "0004de42:player_ias_vflset_en_US_base_js" {
		t.Fatalf("AssetKey = %q", first.AssetKey)
	}
	if requests.Load() != 1 {
		t.Fatalf("requests = %d, want 1", requests.Load())
	}
	if len(obs.hits) != 2 || obs.hits[0] || !obs.hits[1] {
		t.Fatalf("observer hits = %v", obs.hits)
	}
}

func TestLoader_RefreshRefetches(t *testing.T) {
	var requests atomic.Int32
	srv := fixtureServer(t, loadFixture(t, "synthetic_basejs_fixture_v3.js"), &requests)
	resolver := NewResolver(srv.Client(), NewMemoryCache(), ResolverConfig{BaseURL: srv.URL})
	loader := NewLoader(resolver, nil, nil)

	ctx := context.Background()
	const playerURL = "/s/player/0004de42/player_ias.vflset/en_US/base.js"
	first, err := loader.Load(ctx, playerURL)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	refreshed, err := loader.Refresh(ctx, playerURL)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if first == refreshed {
		t.Fatalf("Refresh() returned the stale programs")
	}
	if requests.Load() != 2 {
		t.Fatalf("requests = %d, want 2", requests.Load())
	}
}

func TestLoader_DiscoveryFailureIsNotCached(t *testing.T) {
	var requests atomic.Int32
	srv := fixtureServer(t, "var nothing=1;", &requests)
	resolver := NewResolver(srv.Client(), NewMemoryCache(), ResolverConfig{BaseURL: srv.URL})
	cache := NewProgramCache(time.Hour)
	loader := NewLoader(resolver, cache, nil)

	_, err := loader.Load(context.Background(), "/s/player/aa/player_ias.vflset/en_US/base.js")
	if !errors.Is(err, ErrProgramNotFound) {
		t.Fatalf("Load() error = %v, want ErrProgramNotFound", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("cache.Len() = %d, want 0", cache.Len())
	}
}

func TestProgramCache_ConcurrentLoadsShareDiscovery(t *testing.T) {
	cache := NewProgramCache(0)
	var calls atomic.Int32
	release := make(chan struct{})
	discover := func(context.Context) (*Programs, error) {
		calls.Add(1)
		<-release
		return &Programs{AssetKey: "k"}, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*Programs, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := cache.Load(context.Background(), "k", discover)
			if err != nil {
				t.Errorf("Load() error = %v", err)
				return
			}
			results[i] = p
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("discover calls = %d, want 1", calls.Load())
	}
	for i, p := range results {
		if p != results[0] {
			t.Fatalf("result %d differs", i)
		}
	}
}

func TestProgramCache_CancelledWaiterDoesNotPoisonCache(t *testing.T) {
	cache := NewProgramCache(0)
	release := make(chan struct{})
	discover := func(ctx context.Context) (*Programs, error) {
		<-release
		return &Programs{AssetKey: "k"}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := cache.Load(ctx, "k", discover)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
	close(release)

	p, _, err := cache.Load(context.Background(), "k", discover)
	if err != nil || p == nil || p.AssetKey != "k" {
		t.Fatalf("Load() after cancel = %+v, %v", p, err)
	}
	cache.Invalidate("k")
	if _, ok := cache.Get("k"); ok {
		t.Fatalf("Invalidate() left the entry")
	}
}
