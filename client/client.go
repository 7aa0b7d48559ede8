package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/famomatic/ytresolve/internal/challenge"
	"github.com/famomatic/ytresolve/internal/formats"
	"github.com/famomatic/ytresolve/internal/innertube"
	"github.com/famomatic/ytresolve/internal/itags"
	"github.com/famomatic/ytresolve/internal/playerjs"
	"github.com/famomatic/ytresolve/internal/stream"
	"github.com/famomatic/ytresolve/internal/transport"
	"github.com/famomatic/ytresolve/internal/types"
)

// Client resolves player responses into fetchable streams.
type Client struct {
	config           Config
	playerJSResolver playerjs.Resolver
	loader           *playerjs.Loader
	prober           *transport.Client
	logger           Logger
	metrics          Metrics
}

// New creates a new resolution client.
func New(config Config) *Client {
	return NewClient(config)
}

// NewClient creates a new resolution client.
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	if config.HTTPClient == nil {
		hc, err := transport.NewHTTPClient(config.ProxyURL)
		if err != nil {
			logger.Warnf("ignoring proxy: %v", err)
			hc, _ = transport.NewHTTPClient("")
		}
		config.HTTPClient = hc
	}
	var m Metrics = nopMetrics{}
	if config.Metrics != nil {
		m = config.Metrics
	}

	playerHeaders := transport.MergeHeaders(config.RequestHeaders, config.PlayerJSHeaders)
	jsResolver := playerjs.NewResolver(
		config.HTTPClient,
		playerjs.NewMemoryCache(),
		playerjs.ResolverConfig{
			BaseURL:         config.PlayerJSBaseURL,
			UserAgent:       config.PlayerJSUserAgent,
			Headers:         playerHeaders,
			PreferredLocale: config.PlayerJSPreferredLocale,
		},
	)

	probeHTTP := config.ProbeHTTPClient
	if probeHTTP == nil {
		probeHTTP = config.HTTPClient
	}
	prober := transport.New(probeHTTP, transport.Config{
		MaxRetries:    config.probeRetries(),
		Headers:       config.RequestHeaders,
		RatePerSecond: config.ProbeRatePerSecond,
		Logger:        slogFrom(logger),
	})

	return &Client{
		config:           config,
		playerJSResolver: jsResolver,
		loader:           playerjs.NewLoader(jsResolver, config.programCache(), m),
		prober:           prober,
		logger:           logger,
		metrics:          m,
	}
}

// ProgramCache returns the cache holding discovered programs.
func (c *Client) ProgramCache() *ProgramCache {
	return c.loader.Cache()
}

// withTimeout applies Config.RequestTimeout unless ctx already carries a
// deadline.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.RequestTimeout)
}

// PlayerURL finds the player asset URL for a video ID or watch URL.
func (c *Client) PlayerURL(ctx context.Context, input string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	videoID, err := ExtractVideoID(input)
	if err != nil {
		return "", err
	}
	c.emitExtractionEvent("webpage", "start", "web", videoID)
	playerURL, err := c.playerJSResolver.GetPlayerURL(ctx, videoID)
	if err != nil {
		c.emitExtractionEvent("webpage", "failure", "web", err.Error())
		return "", err
	}
	c.emitExtractionEvent("webpage", "success", "web", playerURL)
	return playerURL, nil
}

// Resolve normalizes the player response, replays the signature and
// throttling programs where records need them, and returns the resolved
// streams in response order.
//
// Manifest shape, asset and discovery failures abort the call. A record
// that fails on its own is left out of Streams and reported in Failures.
// A replay index failure triggers one fresh fetch of the asset and one
// retry of the affected records.
func (c *Client) Resolve(ctx context.Context, req ResolveRequest) (*Result, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	res := &Result{SessionID: uuid.NewString(), PlayerURL: req.PlayerURL}
	ctx = types.WithSessionID(ctx, res.SessionID)

	resp, err := innertube.DecodePlayerResponse(req.PlayerResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	res.VideoID = req.VideoID
	if res.VideoID == "" && resp.VideoDetails.VideoID != "" {
		res.VideoID = resp.VideoDetails.VideoID
	}
	records, err := formats.NormalizeResponse(resp)
	if err != nil {
		return nil, err
	}
	res.DASHManifestURL = resp.StreamingData.DashManifestURL
	res.HLSManifestURL = resp.StreamingData.HlsManifestURL

	outcomes := make([]replayOutcome, len(records))
	recordsNeed := needsReplay(records)
	if recordsNeed || manifestNeedsReplay(res) {
		if res.PlayerURL == "" {
			if res.PlayerURL, err = c.recoverPlayerURL(ctx, res.VideoID); err != nil {
				if recordsNeed {
					return nil, err
				}
				c.logger.Warnf("session=%s manifest n values left as is: %v", res.SessionID, err)
			}
		}
		if res.PlayerURL != "" {
			if err := c.replay(ctx, res, records, outcomes); err != nil {
				return nil, err
			}
		}
	}

	descriptors := make([]*stream.Descriptor, 0, len(records))
	for i := range records {
		rec := records[i]
		direct := rec.Cipher == nil
		err := rec.Err
		if err == nil {
			err = outcomes[i].err
		}
		if err == nil {
			err = rec.Resolve(outcomes[i].sig, outcomes[i].n)
		}
		if err != nil {
			c.recordFailure(res, rec, err)
			continue
		}
		if direct && !formats.IsPresigned(rec.URL) {
			c.logger.Debugf("session=%s itag=%d direct url carries no signature", res.SessionID, rec.Itag)
		}
		profile := itags.Lookup(rec.Itag)
		descriptors = append(descriptors, stream.NewDescriptor(rec, profile, c.prober))
	}
	res.Streams = stream.NewQuery(descriptors)
	res.Elapsed = time.Since(start)
	c.metrics.ObserveResolve(len(descriptors), res.Elapsed)
	c.logger.Debugf("session=%s resolved %d streams, %d failures in %s", res.SessionID, len(descriptors), len(res.Failures), res.Elapsed)
	return res, nil
}

func (c *Client) recoverPlayerURL(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", ErrPlayerURLRequired
	}
	playerURL, err := c.PlayerURL(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPlayerURLRequired, err)
	}
	return playerURL, nil
}

func (c *Client) recordFailure(res *Result, rec formats.Record, err error) {
	category := ClassifyError(err)
	c.metrics.ObserveRecordFailure(string(category))
	c.logger.Warnf("session=%s itag=%d omitted: %v", res.SessionID, rec.Itag, err)
	res.Failures = append(res.Failures, RecordError{Index: rec.Index, Itag: rec.Itag, Err: err})
}

type replayOutcome struct {
	sig string
	n   string
	err error
}

func needsReplay(records []formats.Record) bool {
	for i := range records {
		if records[i].Err != nil {
			continue
		}
		if records[i].NeedsSignature() || records[i].ThrottleValue() != "" {
			return true
		}
	}
	return false
}

// replay fills outcomes for every record needing a signature or "n" value.
func (c *Client) replay(ctx context.Context, res *Result, records []formats.Record, outcomes []replayOutcome) error {
	var programs *playerjs.Programs
	solver := challenge.NewBatchSolver([]challenge.Provider{
		c.provider(c.loader.Load, &programs),
		c.provider(c.loader.Refresh, &programs),
	}, challenge.WithParallelism(c.config.maxParallel()))
	for i := range records {
		addChallenges(solver, &records[i])
	}
	for _, manifestURL := range []string{res.DASHManifestURL, res.HLSManifestURL} {
		for _, n := range []string{pathParam(manifestURL, "n"), queryParam(manifestURL, "n")} {
			if n != "" {
				solver.AddN(n)
			}
		}
	}

	c.emitExtractionEvent("asset", "start", "player", res.PlayerURL)
	if err := solver.Solve(ctx, res.PlayerURL); err != nil {
		c.emitExtractionEvent("asset", "failure", "player", err.Error())
		return err
	}
	c.emitExtractionEvent("asset", "success", "player", strconv.Itoa(programs.SignatureTimestamp))
	res.SignatureTimestamp = programs.SignatureTimestamp
	c.logger.Debugf("programs %s: signature [%s], %d throttle steps", programs.AssetKey, programs.Signature, programs.Throttle.Steps())
	res.DASHManifestURL = c.resolveManifestURL(res.DASHManifestURL, solver)
	res.HLSManifestURL = c.resolveManifestURL(res.HLSManifestURL, solver)

	var stale []int
	for i := range records {
		if records[i].Err != nil {
			continue
		}
		outcomes[i] = outcomeFor(solver, &records[i])
		if errors.Is(outcomes[i].err, ErrReplayIndex) {
			stale = append(stale, i)
		}
	}
	if len(stale) == 0 {
		c.emitExtractionEvent("replay", "success", "player", "")
		return nil
	}
	c.emitExtractionEvent("replay", "partial", "player", fmt.Sprintf("%d records hit a replay index error", len(stale)))
	return c.retryStale(ctx, res, records, outcomes, stale)
}

// retryStale refreshes the asset once and replays the records that failed
// with a replay index error. A failed refresh leaves their errors in place.
func (c *Client) retryStale(ctx context.Context, res *Result, records []formats.Record, outcomes []replayOutcome, stale []int) error {
	var programs *playerjs.Programs
	retry := challenge.NewBatchSolver([]challenge.Provider{
		c.provider(c.loader.Refresh, &programs),
	}, challenge.WithParallelism(c.config.maxParallel()))
	for _, i := range stale {
		addChallenges(retry, &records[i])
	}

	c.emitExtractionEvent("refresh", "start", "player", res.PlayerURL)
	if err := retry.Solve(ctx, res.PlayerURL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.emitExtractionEvent("refresh", "failure", "player", err.Error())
		c.logger.Warnf("session=%s asset refresh failed: %v", res.SessionID, err)
		return nil
	}
	res.Refreshed = true
	res.SignatureTimestamp = programs.SignatureTimestamp
	for _, i := range stale {
		outcomes[i] = outcomeFor(retry, &records[i])
	}
	c.emitExtractionEvent("refresh", "success", "player", strconv.Itoa(len(stale)))
	return nil
}

// resolveManifestURL rewrites the "n" value of a manifest URL, both the
// /n/<value>/ path segment and the query parameter. On failure the original
// URL is kept.
func (c *Client) resolveManifestURL(manifestURL string, solver challenge.BatchSolver) string {
	if !hasManifestThrottle(manifestURL) {
		return manifestURL
	}
	decode := func(value string) (string, error) {
		if err := solver.NErr(value); err != nil {
			return "", err
		}
		n, _ := solver.N(value)
		return n, nil
	}
	rewritten, err := rewritePathParam(manifestURL, "n", decode)
	if err == nil {
		rewritten, err = rewriteURLParam(rewritten, "n", decode)
	}
	if err != nil {
		c.logger.Warnf("n challenge decode failed for manifest url; using original url: %v", err)
		return manifestURL
	}
	return rewritten
}

func manifestNeedsReplay(res *Result) bool {
	return hasManifestThrottle(res.DASHManifestURL) || hasManifestThrottle(res.HLSManifestURL)
}

func hasManifestThrottle(manifestURL string) bool {
	return pathParam(manifestURL, "n") != "" || queryParam(manifestURL, "n") != ""
}

// pathParam returns the segment after key in a /key/value/ style path.
func pathParam(rawURL, key string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(u.EscapedPath(), "/")
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == key && segs[i+1] != "" {
			v, err := url.PathUnescape(segs[i+1])
			if err != nil {
				return ""
			}
			return v
		}
	}
	return ""
}

func rewritePathParam(rawURL, key string, decoder func(string) (string, error)) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	segs := strings.Split(u.EscapedPath(), "/")
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] != key || segs[i+1] == "" {
			continue
		}
		current, err := url.PathUnescape(segs[i+1])
		if err != nil {
			return "", err
		}
		next, err := decoder(current)
		if err != nil {
			return "", err
		}
		segs[i+1] = url.PathEscape(next)
		escaped := strings.Join(segs, "/")
		if u.Path, err = url.PathUnescape(escaped); err != nil {
			return "", err
		}
		u.RawPath = escaped
		return u.String(), nil
	}
	return rawURL, nil
}

func queryParam(rawURL, key string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

func rewriteURLParam(rawURL, key string, decoder func(string) (string, error)) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	current := q.Get(key)
	if current == "" {
		return rawURL, nil
	}
	next, err := decoder(current)
	if err != nil {
		return "", err
	}
	q.Set(key, next)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) provider(load func(context.Context, string) (*playerjs.Programs, error), out **playerjs.Programs) challenge.Provider {
	return challenge.ProviderFunc(func(ctx context.Context, playerURL string) (challenge.Decipherer, error) {
		p, err := load(ctx, playerURL)
		if err != nil {
			return nil, err
		}
		*out = p
		return playerjs.NewDeciphererFromPrograms(p), nil
	})
}

func addChallenges(solver challenge.BatchSolver, rec *formats.Record) {
	if rec.Err != nil {
		return
	}
	if rec.NeedsSignature() {
		solver.AddSig(rec.Cipher.Signature)
	}
	if n := rec.ThrottleValue(); n != "" {
		solver.AddN(n)
	}
}

func outcomeFor(solver challenge.BatchSolver, rec *formats.Record) replayOutcome {
	var out replayOutcome
	if rec.NeedsSignature() {
		if err := solver.SigErr(rec.Cipher.Signature); err != nil {
			out.err = fmt.Errorf("signature: %w", err)
			return out
		}
		out.sig, _ = solver.Sig(rec.Cipher.Signature)
	}
	if n := rec.ThrottleValue(); n != "" {
		if err := solver.NErr(n); err != nil {
			out.err = fmt.Errorf("throttle: %w", err)
			return out
		}
		out.n, _ = solver.N(n)
	}
	return out
}

// Filesize returns the byte size of s, probing the host when the size was
// not declared.
func (c *Client) Filesize(ctx context.Context, s *Stream) (int64, error) {
	n, err := s.Filesize(ctx)
	c.metrics.ObserveProbe(err)
	if err != nil {
		c.logger.Warnf("itag=%d size probe failed: %v", s.Itag(), err)
	}
	return n, err
}

// ProbeSizes sizes every stream of q concurrently. Results keep the order
// of q and a failure affects only its own entry.
func (c *Client) ProbeSizes(ctx context.Context, q *StreamQuery) []SizeResult {
	streams := q.All()
	out := make([]SizeResult, len(streams))
	c.emitExtractionEvent("probe", "start", "media", strconv.Itoa(len(streams)))
	var g errgroup.Group
	g.SetLimit(c.config.maxParallel())
	for i, s := range streams {
		g.Go(func() error {
			n, err := c.Filesize(ctx, s)
			out[i] = SizeResult{Itag: s.Itag(), Size: n, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	c.emitExtractionEvent("probe", "success", "media", strconv.Itoa(len(streams)))
	return out
}
