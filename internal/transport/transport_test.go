package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestClient_GetRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := New(server.Client(), fastConfig())
	body, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "ok" || calls.Load() != 2 {
		t.Fatalf("body=%q calls=%d", body, calls.Load())
	}
}

func TestClient_RejectionIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := New(server.Client(), fastConfig())
	_, err := c.ContentLength(context.Background(), server.URL)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("ContentLength() error = %v, want ErrRejected", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_ContentLengthAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("X-Probe") != "1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Length", "4096")
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.Headers = http.Header{"X-Probe": []string{"1"}}
	c := New(server.Client(), cfg)
	n, err := c.ContentLength(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("ContentLength() error = %v", err)
	}
	if n != 4096 {
		t.Fatalf("ContentLength() = %d, want 4096", n)
	}
}

func TestClient_SegmentedLength(t *testing.T) {
	const first = "header\r\nSegment-Count: 3\r\npayload"
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sq := r.URL.Query().Get("sq")
		if r.URL.Query().Get("itag") != "22" {
			t.Errorf("original query lost: %s", r.URL.RawQuery)
		}
		seen = append(seen, r.Method+":"+sq)
		if sq == "0" {
			_, _ = w.Write([]byte(first))
			return
		}
		n, _ := strconv.Atoi(sq)
		w.Header().Set("Content-Length", strconv.Itoa(n*100))
	}))
	defer server.Close()

	c := New(server.Client(), fastConfig())
	total, err := c.SegmentedLength(context.Background(), server.URL+"/videoplayback?itag=22")
	if err != nil {
		t.Fatalf("SegmentedLength() error = %v", err)
	}
	want := int64(len(first) + 100 + 200 + 300)
	if total != want {
		t.Fatalf("SegmentedLength() = %d, want %d", total, want)
	}
	wantSeen := []string{"GET:0", "HEAD:1", "HEAD:2", "HEAD:3"}
	if len(seen) != len(wantSeen) {
		t.Fatalf("requests = %v", seen)
	}
	for i := range wantSeen {
		if seen[i] != wantSeen[i] {
			t.Fatalf("requests = %v, want %v", seen, wantSeen)
		}
	}
}

func TestClient_SegmentedLengthWithoutCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("no count here"))
	}))
	defer server.Close()

	c := New(server.Client(), fastConfig())
	if _, err := c.SegmentedLength(context.Background(), server.URL); !errors.Is(err, ErrSegmentCountNotFound) {
		t.Fatalf("SegmentedLength() error = %v, want ErrSegmentCountNotFound", err)
	}
}

func TestClient_CancelledContextStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.Client(), Config{MaxRetries: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Get(ctx, server.URL); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Get() error = %v, want deadline exceeded", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.raw); got != tt.want {
			t.Fatalf("parseRetryAfter(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
