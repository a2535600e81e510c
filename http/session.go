package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// SessionConfig configures session behavior.
type SessionConfig struct {
	// PersistCookies enables saving/loading cookies from disk
	PersistCookies bool
	// CookieFile is the path to save cookies (if PersistCookies is true)
	CookieFile string
	// UserAgent for HTTP requests
	UserAgent string
	// RefererURL to use in requests (helps with YouTube)
	RefererURL string
	// Headers are custom headers to include in all requests
	Headers map[string]string
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		UserAgent:  defaultUserAgent,
		RefererURL: "https://www.youtube.com/",
		Headers:    make(map[string]string),
	}
}

// Session manages cookies and per-request headers for YouTube interactions.
// A pre-seeded CONSENT cookie avoids the EU consent interstitial that would
// otherwise replace API responses with an HTML redirect.
type Session struct {
	jar        http.CookieJar
	cookiePath string
	mu         sync.RWMutex
	config     SessionConfig
}

// NewSession creates a session with a fresh cookie jar.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	s := &Session{
		jar:        jar,
		cookiePath: cfg.CookieFile,
		config:     cfg,
	}
	s.seedConsent()

	if cfg.PersistCookies && cfg.CookieFile != "" {
		// Cookie file may not exist yet; that is fine.
		if err := s.LoadCookies(); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return s, nil
}

// seedConsent sets the YouTube consent cookie on the jar.
func (s *Session) seedConsent() {
	u, _ := url.Parse("https://www.youtube.com/")
	s.jar.SetCookies(u, []*http.Cookie{
		{Name: "CONSENT", Value: "YES+cb", Path: "/", Domain: ".youtube.com"},
	})
}

// Jar returns the session's cookie jar for use in an http.Client.
func (s *Session) Jar() http.CookieJar {
	return s.jar
}

// Headers returns the headers to add to every request.
func (s *Session) Headers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	headers := make(map[string]string, len(s.config.Headers)+2)
	for k, v := range s.config.Headers {
		headers[k] = v
	}
	headers["User-Agent"] = s.config.UserAgent
	if s.config.RefererURL != "" {
		headers["Referer"] = s.config.RefererURL
	}
	return headers
}

// AddHeader adds a header to be included in all requests.
func (s *Session) AddHeader(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Headers[key] = value
}

// SaveCookies persists the YouTube cookies to the configured file.
func (s *Session) SaveCookies() error {
	if !s.config.PersistCookies || s.cookiePath == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, _ := url.Parse("https://www.youtube.com/")
	cookies := s.jar.Cookies(u)

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.cookiePath), 0700); err != nil {
		return fmt.Errorf("create cookie directory: %w", err)
	}
	if err := os.WriteFile(s.cookiePath, data, 0600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

// LoadCookies loads previously saved cookies into the jar.
func (s *Session) LoadCookies() error {
	if !s.config.PersistCookies || s.cookiePath == "" {
		return nil
	}

	data, err := os.ReadFile(s.cookiePath)
	if err != nil {
		return err
	}

	var cookies []*http.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("unmarshal cookies: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, domain := range []string{"https://www.youtube.com", "https://youtube.com"} {
		if u, err := url.Parse(domain); err == nil {
			s.jar.SetCookies(u, cookies)
		}
	}
	return nil
}

// Close saves cookies and releases session resources.
func (s *Session) Close() error {
	return s.SaveCookies()
}
