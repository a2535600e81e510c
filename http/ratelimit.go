package http

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Backoff tuning for YouTube endpoints.
const (
	initialBackoff    = 1 * time.Second
	maxBackoff        = 60 * time.Second
	backoffMultiplier = 2.0
	// backoffCooldown is how long after the last error before backoff resets.
	backoffCooldown = 5 * time.Minute
	// minRateFraction is the floor for dynamic rate reduction (25% of original).
	minRateFraction = 0.25
)

// RateLimiterConfig defines per-host request rates.
type RateLimiterConfig struct {
	// PlayerRPS is requests per second for the Innertube player endpoint (default: 2.5)
	PlayerRPS float64
	// TimedtextRPS is requests per second for caption track downloads (default: 5.0)
	TimedtextRPS float64
	// DataAPIRPS is requests per second for the YouTube Data API (default: 1.0)
	DataAPIRPS float64
	// CustomRates maps hosts to RPS values; 0 means unlimited.
	CustomRates map[string]float64
	// EnableDynamicBackoff enables automatic rate reduction after 429/403 responses.
	EnableDynamicBackoff bool
}

// DefaultRateLimiterConfig returns conservative defaults aligned with
// YouTube's observed tolerance for unauthenticated clients.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		PlayerRPS:            2.5,
		TimedtextRPS:         5.0,
		DataAPIRPS:           1.0,
		CustomRates:          make(map[string]float64),
		EnableDynamicBackoff: true,
	}
}

// backoffState tracks rate limit backoff for a host.
type backoffState struct {
	current           time.Duration
	lastError         time.Time
	consecutiveErrors int
	originalRPS       float64
	reducedRPS        float64
}

// RateLimiter manages per-host token-bucket rate limiting with dynamic
// backoff after rate limit responses.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	backoff  map[string]*backoffState
	mu       sync.Mutex
	config   RateLimiterConfig
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if cfg.PlayerRPS == 0 {
		cfg.PlayerRPS = def.PlayerRPS
	}
	if cfg.TimedtextRPS == 0 {
		cfg.TimedtextRPS = def.TimedtextRPS
	}
	if cfg.DataAPIRPS == 0 {
		cfg.DataAPIRPS = def.DataAPIRPS
	}
	if cfg.CustomRates == nil {
		cfg.CustomRates = make(map[string]float64)
	}

	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		backoff:  make(map[string]*backoffState),
		config:   cfg,
	}
}

// Wait blocks until the rate limit allows a request for the given URL, or
// the context is done.
func (rl *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}

	limiter := rl.getLimiter(urlStr)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// getLimiter returns the limiter for a URL's host, creating one if necessary.
func (rl *RateLimiter) getLimiter(urlStr string) *rate.Limiter {
	host := hostOf(urlStr)
	rps := rl.rpsFor(host)
	if rps == 0 {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[host]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[host] = limiter
	return limiter
}

// rpsFor returns the configured requests per second for a host.
func (rl *RateLimiter) rpsFor(host string) float64 {
	if rps, ok := rl.config.CustomRates[host]; ok {
		return rps
	}

	switch host {
	case "www.youtube.com", "youtube.com":
		return rl.config.PlayerRPS
	case "www.googleapis.com", "googleapis.com", "youtube.googleapis.com":
		return rl.config.DataAPIRPS
	default:
		// Timedtext base URLs point at assorted googlevideo/youtube hosts.
		return rl.config.TimedtextRPS
	}
}

// RecordRateLimitError records a 429/403 for the URL's host and returns the
// recommended backoff before the next attempt.
func (rl *RateLimiter) RecordRateLimitError(urlStr string, retryAfter time.Duration) time.Duration {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		if retryAfter > 0 {
			return retryAfter
		}
		return initialBackoff
	}

	host := hostOf(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok {
		state = &backoffState{
			current:     initialBackoff,
			originalRPS: rl.rpsFor(host),
		}
		rl.backoff[host] = state
	}

	state.lastError = time.Now()
	state.consecutiveErrors++

	// 1s -> 2s -> 4s -> ... capped at maxBackoff
	if state.consecutiveErrors > 1 {
		state.current = time.Duration(float64(state.current) * backoffMultiplier)
		if state.current > maxBackoff {
			state.current = maxBackoff
		}
	}

	// Honor a longer server-specified Retry-After.
	if retryAfter > state.current {
		state.current = retryAfter
	}

	rl.reduceRate(host, state)

	return state.current
}

// reduceRate lowers the token rate for a host in trouble. Caller holds mu.
func (rl *RateLimiter) reduceRate(host string, state *backoffState) {
	fraction := 1.0
	switch {
	case state.consecutiveErrors >= 3:
		fraction = minRateFraction
	case state.consecutiveErrors == 2:
		fraction = 0.5
	case state.consecutiveErrors == 1:
		fraction = 0.75
	}

	newRPS := state.originalRPS * fraction
	if newRPS < state.originalRPS*minRateFraction {
		newRPS = state.originalRPS * minRateFraction
	}
	state.reducedRPS = newRPS

	if limiter, ok := rl.limiters[host]; ok {
		limiter.SetLimit(rate.Limit(newRPS))
	}
}

// RecordSuccess records a successful request, gradually restoring the
// original rate once the host has been quiet past the cooldown.
func (rl *RateLimiter) RecordSuccess(urlStr string) {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		return
	}

	host := hostOf(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok {
		return
	}

	if time.Since(state.lastError) > backoffCooldown {
		if limiter, ok := rl.limiters[host]; ok && state.reducedRPS > 0 {
			limiter.SetLimit(rate.Limit(state.originalRPS))
		}
		delete(rl.backoff, host)
		return
	}

	if state.consecutiveErrors > 0 {
		state.consecutiveErrors--
		if state.reducedRPS > 0 && state.consecutiveErrors == 0 {
			// Recover to 50% of original; full recovery after cooldown.
			newRPS := state.originalRPS * 0.5
			if newRPS > state.reducedRPS {
				state.reducedRPS = newRPS
				if limiter, ok := rl.limiters[host]; ok {
					limiter.SetLimit(rate.Limit(newRPS))
				}
			}
		}
	}
}

// WaitForBackoff waits for any remaining backoff period for the URL's host.
// Returns immediately if the host is not backed off.
func (rl *RateLimiter) WaitForBackoff(ctx context.Context, urlStr string) error {
	if rl == nil {
		return nil
	}

	host := hostOf(urlStr)

	rl.mu.Lock()
	state, ok := rl.backoff[host]
	var remaining time.Duration
	if ok {
		remaining = state.current - time.Since(state.lastError)
	}
	rl.mu.Unlock()

	if remaining <= 0 {
		return nil
	}

	select {
	case <-time.After(remaining):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsBackedOff reports whether the URL's host is currently in a backoff window.
func (rl *RateLimiter) IsBackedOff(urlStr string) bool {
	if rl == nil {
		return false
	}

	host := hostOf(urlStr)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok {
		return false
	}
	return time.Since(state.lastError) < state.current
}

// hostOf extracts the host (without port) from a URL string.
func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
