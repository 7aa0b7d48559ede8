package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrRejected marks a 4xx answer: the host refused the request for this
	// URL and retrying will not help.
	ErrRejected = errors.New("request rejected")
	// ErrUnknownLength is returned when a response carries no usable
	// Content-Length.
	ErrUnknownLength = errors.New("content length unknown")
)

// Config controls retry/backoff and pacing of probe requests.
type Config struct {
	MaxRetries       int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	RetryStatusCodes []int
	Headers          http.Header
	// RatePerSecond paces every request issued by the client. Zero means
	// unlimited.
	RatePerSecond float64
	Burst         int
	Logger        *slog.Logger
}

type effectiveConfig struct {
	MaxRetries       int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	RetryStatusCodes []int
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Method     string
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status=%d", strings.ToLower(e.Method), e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests {
		return ErrRejected
	}
	return nil
}

// Client issues retrying, rate-limited GET and HEAD requests.
type Client struct {
	http    *http.Client
	cfg     effectiveConfig
	headers http.Header
	limiter *rate.Limiter
	logger  *slog.Logger
}

func New(client *http.Client, cfg Config) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:    client,
		cfg:     normalizeConfig(cfg),
		headers: MergeHeaders(cfg.Headers),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func normalizeConfig(cfg Config) effectiveConfig {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = 500 * time.Millisecond
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 3 * time.Second
	}
	statusCodes := cfg.RetryStatusCodes
	if len(statusCodes) == 0 {
		statusCodes = []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		}
	}
	return effectiveConfig{
		MaxRetries:       maxRetries,
		InitialBackoff:   initialBackoff,
		MaxBackoff:       maxBackoff,
		RetryStatusCodes: statusCodes,
	}
}

func (c effectiveConfig) backoffFor(attempt int) time.Duration {
	backoff := c.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return backoff
}

func (c effectiveConfig) retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		for _, code := range c.RetryStatusCodes {
			if statusErr.StatusCode == code {
				return true
			}
		}
		return false
	}
	return true
}

// Get returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := c.do(ctx, http.MethodGet, rawURL, func(resp *http.Response) error {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}

// Head returns the response headers and declared length of a 200 HEAD
// response. The length is -1 when undeclared.
func (c *Client) Head(ctx context.Context, rawURL string) (http.Header, int64, error) {
	var (
		header http.Header
		length int64
	)
	err := c.do(ctx, http.MethodHead, rawURL, func(resp *http.Response) error {
		header = resp.Header
		length = resp.ContentLength
		return nil
	})
	return header, length, err
}

func (c *Client) do(ctx context.Context, method, rawURL string, read func(*http.Response) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		lastErr = c.once(ctx, method, rawURL, read)
		if lastErr == nil {
			return nil
		}
		if !c.cfg.retryable(lastErr) || attempt == c.cfg.MaxRetries {
			return lastErr
		}
		backoff := c.cfg.backoffFor(attempt)
		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && statusErr.RetryAfter > backoff {
			backoff = statusErr.RetryAfter
		}
		c.logger.DebugContext(ctx, "retrying request",
			"method", method, "attempt", attempt+1, "backoff", backoff, "error", lastErr)
		if err := waitBackoff(ctx, backoff); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, rawURL string, read func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return err
	}
	addHeaders(req, c.headers)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{
			Method:     method,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return read(resp)
}

func waitBackoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		d := time.Until(when)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
