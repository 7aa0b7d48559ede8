package challenge

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestThrottleCache_ComputesEachValueOnce(t *testing.T) {
	var calls atomic.Int32
	cache := NewThrottleCache(func(raw string) (string, error) {
		calls.Add(1)
		return raw + "!", nil
	})

	const workers = 16
	var wg sync.WaitGroup
	out := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrCompute("abc")
			if err != nil {
				t.Errorf("GetOrCompute() error = %v", err)
			}
			out[i] = v
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("compute calls = %d, want 1", calls.Load())
	}
	for i, v := range out {
		if v != "abc!" {
			t.Fatalf("out[%d] = %q", i, v)
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", cache.Len())
	}
}

func TestThrottleCache_MemoizesErrors(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	cache := NewThrottleCache(func(string) (string, error) {
		calls++
		return "", boom
	})
	for i := 0; i < 3; i++ {
		if _, err := cache.GetOrCompute("x"); !errors.Is(err, boom) {
			t.Fatalf("GetOrCompute() error = %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("compute calls = %d, want 1", calls)
	}
	if _, err, ok := cache.Lookup("x"); !ok || !errors.Is(err, boom) {
		t.Fatalf("Lookup() = %v, %v", err, ok)
	}
	if _, _, ok := cache.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) reported a value")
	}
}
