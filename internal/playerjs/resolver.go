package playerjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrPlayerURLNotFound is returned when a page carries no player asset URL.
var ErrPlayerURLNotFound = errors.New("player url not found")

type Resolver interface {
	GetPlayerJS(ctx context.Context, playerURL string) (string, error)
	GetPlayerURL(ctx context.Context, videoID string) (string, error)
	// AssetKey identifies the asset behind playerURL regardless of locale.
	AssetKey(playerURL string) string
	// Forget drops the cached asset for playerURL.
	Forget(playerURL string)
}

type defaultResolver struct {
	client *http.Client
	cache  Cache
	config ResolverConfig
}

// ResolverConfig contains externally tunable settings for player JS fetches.
type ResolverConfig struct {
	BaseURL         string
	UserAgent       string
	Headers         http.Header
	PreferredLocale string
}

const defaultPlayerJSUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
const defaultPlayerJSLocale = "en_US"
const defaultBaseURL = "https://www.youtube.com"

var playerURLPattern = regexp.MustCompile(`(/s/player/[A-Za-z0-9_-]+/[A-Za-z0-9._/-]*/base\.js)`)
var playerPathPattern = regexp.MustCompile(`^/s/player/([A-Za-z0-9_-]+)/(.+)$`)
var localePathPattern = regexp.MustCompile(`(?i)(player(?:_[a-z0-9]+)?\.vflset)/[a-z]{2,3}_[a-z]{2,3}/base\.js$`)
var nonAlnumPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Player URL sources in page order of preference. Values are JSON string
// bodies and may carry escaped slashes.
var playerConfigPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"PLAYER_JS_URL"\s*:\s*"((?:[^"\\]|\\.)+)"`),
	regexp.MustCompile(`"jsUrl"\s*:\s*"((?:[^"\\]|\\.)+)"`),
	regexp.MustCompile(`"assets"\s*:\s*\{[^{}]*?"js"\s*:\s*"((?:[^"\\]|\\.)+)"`),
}

func NewResolver(client *http.Client, cache Cache, cfg ...ResolverConfig) Resolver {
	resolverConfig := ResolverConfig{}
	if len(cfg) > 0 {
		resolverConfig = cfg[0]
	}
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &defaultResolver{
		client: client,
		cache:  cache,
		config: resolverConfig,
	}
}

func (r *defaultResolver) GetPlayerJS(ctx context.Context, playerURL string) (string, error) {
	normalizedPath := r.normalizePlayerPath(playerURL)
	cacheKey := r.playerCacheKey(normalizedPath)
	if body, ok := r.cache.Get(cacheKey); ok {
		return body, nil
	}

	candidates := []string{normalizedPath}
	if playerURL != normalizedPath {
		candidates = append(candidates, playerURL)
	}

	var lastErr error
	for _, candidate := range candidates {
		body, err := r.fetch(ctx, r.absoluteURL(candidate))
		if err != nil {
			lastErr = fmt.Errorf("failed to fetch player JS: %w", err)
			continue
		}
		r.cache.Set(cacheKey, string(body))
		return string(body), nil
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("failed to fetch player JS")
}

func (r *defaultResolver) AssetKey(playerURL string) string {
	return r.playerCacheKey(r.normalizePlayerPath(playerURL))
}

func (r *defaultResolver) Forget(playerURL string) {
	r.cache.Delete(r.AssetKey(playerURL))
}

func (r *defaultResolver) GetPlayerURL(ctx context.Context, videoID string) (string, error) {
	u, err := url.Parse(r.baseURL() + "/watch")
	if err != nil {
		return "", fmt.Errorf("failed to build watch url: %w", err)
	}
	q := u.Query()
	q.Set("v", videoID)
	u.RawQuery = q.Encode()

	body, err := r.fetch(ctx, u.String())
	if err != nil {
		return "", fmt.Errorf("failed to fetch watch page: %w", err)
	}
	if playerURL, err := PlayerURLFromHTML(body); err == nil {
		return playerURL, nil
	}

	// Pages without an inline config still load the iframe API script,
	// which references the current player.
	for _, src := range iframeScriptSources(body) {
		script, err := r.fetch(ctx, r.absoluteURL(src))
		if err != nil {
			continue
		}
		if m := playerURLPattern.FindSubmatch(script); len(m) > 1 {
			return string(m[1]), nil
		}
	}
	return "", ErrPlayerURLNotFound
}

// PlayerURLFromHTML extracts the player asset URL from a watch or embed
// page.
func PlayerURLFromHTML(page []byte) (string, error) {
	for _, re := range playerConfigPatterns {
		m := re.FindSubmatch(page)
		if len(m) < 2 {
			continue
		}
		var value string
		if err := json.Unmarshal(append(append([]byte{'"'}, m[1]...), '"'), &value); err != nil {
			continue
		}
		if value != "" {
			return value, nil
		}
	}
	if m := playerURLPattern.FindSubmatch(page); len(m) > 1 {
		return string(m[1]), nil
	}
	return "", ErrPlayerURLNotFound
}

func iframeScriptSources(page []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.Contains(src, "iframe_api") {
			out = append(out, src)
		}
	})
	return out
}

func (r *defaultResolver) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	ua := r.config.UserAgent
	if ua == "" {
		ua = defaultPlayerJSUserAgent
	}
	req.Header.Set("User-Agent", ua)
	for k, values := range r.config.Headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

func (r *defaultResolver) baseURL() string {
	if r.config.BaseURL == "" {
		return defaultBaseURL
	}
	return strings.TrimRight(r.config.BaseURL, "/")
}

func (r *defaultResolver) absoluteURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	base, err := url.Parse(r.baseURL() + "/")
	if err != nil {
		return r.baseURL() + ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return r.baseURL() + ref
	}
	return base.ResolveReference(rel).String()
}

func (r *defaultResolver) normalizePlayerPath(playerURL string) string {
	u, err := url.Parse(playerURL)
	if err == nil && u.Path != "" {
		playerURL = u.Path
	}
	locale := r.config.PreferredLocale
	if locale == "" {
		locale = defaultPlayerJSLocale
	}
	if localePathPattern.MatchString(playerURL) {
		return localePathPattern.ReplaceAllString(playerURL, "${1}/"+locale+"/base.js")
	}
	return playerURL
}

func (r *defaultResolver) playerCacheKey(playerPath string) string {
	m := playerPathPattern.FindStringSubmatch(playerPath)
	if len(m) < 3 {
		return playerPath
	}
	playerID := m[1]
	variant := nonAlnumPattern.ReplaceAllString(m[2], "_")
	return playerID + ":" + variant
}
