// Package http provides HTTP client infrastructure for YouTube interactions
// with built-in retry logic, rate limiting, and error handling.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"ytscript/retry"
)

// defaultUserAgent mimics a standard browser; YouTube serves different
// responses to unknown clients.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config holds HTTP client configuration including retry and rate limit settings.
type Config struct {
	// Timeout for individual HTTP requests
	Timeout time.Duration

	// Retry configuration
	Retry retry.Config

	// UserAgent for HTTP requests
	UserAgent string

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Circuit breaker configuration
	CircuitBreaker CircuitBreakerConfig

	// Connection pool configuration
	Transport TransportConfig
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	MaxIdleConns int
	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int
	// MaxConnsPerHost is the maximum concurrent connections per host.
	MaxConnsPerHost int
	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	IdleConnTimeout time.Duration
	// ForceAttemptHTTP2 forces HTTP/2 where the server supports it.
	ForceAttemptHTTP2 bool
}

// DefaultTransportConfig returns sensible transport defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	cbConfig := DefaultCircuitBreakerConfig()
	cbConfig.IsTransientError = IsTransientHTTPError

	return &Config{
		Timeout:        30 * time.Second,
		Retry:          retry.DefaultConfig(),
		UserAgent:      defaultUserAgent,
		RateLimiter:    DefaultRateLimiterConfig(),
		CircuitBreaker: cbConfig,
		Transport:      DefaultTransportConfig(),
	}
}

// Client wraps an HTTP client with retry logic, rate limiting, and a
// per-host circuit breaker.
type Client struct {
	base           *http.Client
	config         *Config
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	session        *Session
}

// New creates a new HTTP client with the given configuration.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.Transport.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   cfg.Transport.ForceAttemptHTTP2,
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	return &Client{
		base:           base,
		config:         cfg,
		rateLimiter:    NewRateLimiter(cfg.RateLimiter),
		circuitBreaker: NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

// WithSession attaches a session whose cookies and headers apply to every
// request made through the client.
func (c *Client) WithSession(s *Session) *Client {
	c.session = s
	c.base.Jar = s.Jar()
	return c
}

// Response represents an HTTP response with status code and body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get performs a GET request with retry logic.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, nil)
}

// Do performs an HTTP request with retry logic and rate limit handling.
// It retries transient failures, honors Retry-After on 429 responses, and
// fails fast through the circuit breaker when a host is unresponsive.
func (c *Client) Do(ctx context.Context, method, urlStr string, body []byte, headers map[string]string) (*Response, error) {
	host := hostOf(urlStr)

	if err := c.circuitBreaker.Allow(host); err != nil {
		return nil, err
	}

	// Honor any backoff from earlier rate limit errors before spending a token.
	if err := c.rateLimiter.WaitForBackoff(ctx, urlStr); err != nil {
		c.circuitBreaker.RecordFailure(host, err)
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, urlStr); err != nil {
		c.circuitBreaker.RecordFailure(host, err)
		return nil, err
	}

	var result *Response

	err := retry.Do(ctx, c.config.Retry, c.isRetryableHTTPError, func(ctx context.Context) error {
		// Fresh reader per attempt so retries resend the full body.
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
		if err != nil {
			return err
		}

		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.session != nil {
			for k, v := range c.session.Headers() {
				// Don't override explicitly set headers.
				if req.Header.Get(k) == "" {
					req.Header.Set(k, v)
				}
			}
		}

		resp, err := c.base.Do(req)
		if err != nil {
			return fmt.Errorf("http request failed: %w", err)
		}
		defer resp.Body.Close()

		// 429/503 is rate limiting; 403 is usually anti-bot detection.
		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusForbidden {
			retryAfter := parseRetryAfter(resp.Header)
			if backoff := c.rateLimiter.RecordRateLimitError(urlStr, retryAfter); backoff > retryAfter {
				retryAfter = backoff
			}
			return &RateLimitError{
				StatusCode:     resp.StatusCode,
				RetryAfter:     retryAfter,
				IsBotDetection: resp.StatusCode == http.StatusForbidden,
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			return &HTTPError{StatusCode: resp.StatusCode, Body: respBody}
		}

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		result = &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
		}
		return nil
	})

	if err != nil {
		c.circuitBreaker.RecordFailure(host, err)
		return nil, err
	}
	if result == nil {
		err := ErrNoResponse
		c.circuitBreaker.RecordFailure(host, err)
		return nil, err
	}

	c.rateLimiter.RecordSuccess(urlStr)
	c.circuitBreaker.RecordSuccess(host)

	return result, nil
}

// isRetryableHTTPError determines if an HTTP error is retryable.
func (c *Client) isRetryableHTTPError(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}
	if _, ok := err.(*RateLimitError); ok {
		return true
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode >= 500
	}
	return true
}

// parseRetryAfter extracts the Retry-After header value as a duration.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}
	return 0
}

// Close closes idle connections held by the client.
func (c *Client) Close() error {
	if c.base != nil {
		c.base.CloseIdleConnections()
	}
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
