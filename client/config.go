package client

import (
	"net/http"
	"time"

	"github.com/famomatic/ytresolve/internal/playerjs"
)

// ProgramCache holds discovered transform programs keyed by asset version.
// Share one between clients to reuse discovery work.
type ProgramCache = playerjs.ProgramCache

// NewProgramCache creates a program cache whose entries expire after ttl.
// A ttl <= 0 keeps entries until invalidated.
func NewProgramCache(ttl time.Duration) *ProgramCache {
	return playerjs.NewProgramCache(ttl)
}

const (
	defaultProbeRetries       = 2
	defaultMaxParallelReplays = 4
)

// Config holds configuration for the resolution client.
type Config struct {
	// HTTPClient is the client used for player asset and watch page fetches.
	// If nil, a client honoring ProxyURL is built.
	HTTPClient *http.Client

	// ProxyURL is the optional proxy URL to use for requests.
	// If HTTPClient is provided, this field is ignored.
	ProxyURL string

	// PlayerJSBaseURL overrides player JS fetch host (default: https://www.youtube.com).
	PlayerJSBaseURL string

	// PlayerJSUserAgent overrides player JS fetch User-Agent.
	// If empty, package fallback is used.
	PlayerJSUserAgent string

	// PlayerJSHeaders are additional headers for player JS fetches.
	PlayerJSHeaders http.Header

	// PlayerJSPreferredLocale controls canonical locale for player JS fetch path.
	// Default is "en_US". Fetch falls back to the original watch-page locale path.
	PlayerJSPreferredLocale string

	// RequestHeaders are sent with every outgoing request, including size probes.
	RequestHeaders http.Header

	// RequestTimeout bounds Resolve and PlayerURL when the context carries
	// no deadline. Zero disables it.
	RequestTimeout time.Duration

	// ProgramCache is used instead of a private cache when set.
	ProgramCache *ProgramCache

	// ProgramCacheTTL applies to the private cache (default 6h).
	ProgramCacheTTL time.Duration

	// MaxParallelReplays bounds concurrent replays and size probes (default 4).
	MaxParallelReplays int

	// ProbeHTTPClient is used for HEAD and segment probes. Defaults to HTTPClient.
	ProbeHTTPClient *http.Client

	// ProbeRetries is the retry count for size probes (default 2, negative disables).
	ProbeRetries int

	// ProbeRatePerSecond paces size probes. Zero means unlimited.
	ProbeRatePerSecond float64

	Logger            Logger
	Metrics           Metrics
	OnExtractionEvent func(ExtractionEvent)
}

func (c Config) programCache() *ProgramCache {
	if c.ProgramCache != nil {
		return c.ProgramCache
	}
	ttl := c.ProgramCacheTTL
	if ttl == 0 {
		ttl = playerjs.DefaultProgramTTL
	}
	return playerjs.NewProgramCache(ttl)
}

func (c Config) maxParallel() int {
	if c.MaxParallelReplays > 0 {
		return c.MaxParallelReplays
	}
	return defaultMaxParallelReplays
}

func (c Config) probeRetries() int {
	switch {
	case c.ProbeRetries < 0:
		return 0
	case c.ProbeRetries == 0:
		return defaultProbeRetries
	}
	return c.ProbeRetries
}
