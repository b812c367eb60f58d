package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/catalogrecon/backend/internal/domain"
)

// Request defaults
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultMaxAttempts       = 3
	DefaultUserAgent         = "CatalogRecon/1.0"

	// maxBodySize caps how much of a response is read into memory
	maxBodySize = 20 << 20
	// maxErrorSnippet caps how much of an error body ends up in logs and errors
	maxErrorSnippet = 512
)

// Config holds connection settings for an upstream feed
type Config struct {
	BaseURL           string
	AuthToken         string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxAttempts       int
	UserAgent         string
}

// Client executes rate-limited, retried HTTP requests against one upstream feed.
// Transport errors, 429 and 5xx responses are retried with exponential backoff;
// other non-200 responses fail immediately.
type Client struct {
	name        string
	httpClient  *http.Client
	baseURL     string
	authToken   string
	userAgent   string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
	debug       bool
}

// NewClient creates a client for the upstream identified by name (used in logs)
func NewClient(name string, cfg Config, logger *zap.Logger) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		name: name,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authToken:   cfg.AuthToken,
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxAttempts: cfg.MaxAttempts,
		backoff:     exponentialBackoff,
		logger:      logger.With(zap.String("upstream", name)),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// exponentialBackoff returns the wait before retrying after the given attempt:
// 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		c.logger.Debug(fmt.Sprintf(format, args...))
	}
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// Do sends a request to baseURL+path and returns the body of a 200 response.
// body may be nil; it is resent on every attempt.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := c.newRequest(ctx, method, reqURL, body)
		if err != nil {
			return nil, err
		}

		c.debugLog("%s %s (attempt %d)", method, reqURL, attempt)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, ctx.Err())
			}
			c.logger.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
			continue
		}

		respBody, readErr := readLimitedBody(resp.Body, maxBodySize)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			if readErr != nil {
				return nil, fmt.Errorf("%w: reading body: %v", domain.ErrUpstreamFailure, readErr)
			}
			return respBody, nil
		}

		snippet := string(respBody)
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet]
		}
		statusErr := fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, snippet)

		if !retryable(resp.StatusCode) {
			c.logger.Warn("request rejected", zap.Int("status", resp.StatusCode))
			return nil, statusErr
		}
		c.logger.Warn("retryable response",
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode),
		)
		lastErr = statusErr
	}

	c.logger.Error("all retries failed", zap.String("url", reqURL), zap.Error(lastErr))
	return nil, lastErr
}

func (c *Client) newRequest(ctx context.Context, method, reqURL string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, ctx.Err())
	}
}
