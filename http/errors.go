package http

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError indicates the server rate limited or blocked the request.
type RateLimitError struct {
	// StatusCode is the HTTP status code (429, 403, or 503)
	StatusCode int
	// RetryAfter indicates how long to wait before retrying
	RetryAfter time.Duration
	// IsBotDetection indicates this may be anti-bot protection (403)
	IsBotDetection bool
}

// Error returns a string representation of the rate limit error.
func (e *RateLimitError) Error() string {
	if e.IsBotDetection {
		return fmt.Sprintf("bot detection (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (status %d): retry after %v", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// HTTPError indicates a non-2xx HTTP response.
type HTTPError struct {
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the response body
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// IsTransientHTTPError reports whether an error says something about host
// health. Deterministic client errors (4xx) describe the request, not the
// host, and must not count against the circuit breaker.
func IsTransientHTTPError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return true
}

// ErrCircuitOpen is returned when the circuit breaker refuses a request.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrNoResponse indicates no response was received from the server.
var ErrNoResponse = errors.New("no response received")
