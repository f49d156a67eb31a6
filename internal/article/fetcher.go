// Package article downloads result pages and extracts their readable text.
package article

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"
)

// ErrNoArticle is returned when a page was fetched but holds no readable
// article text.
var ErrNoArticle = errors.New("no article text")

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxWords = 5000

	// maxBodyBytes caps how much of a page is read before extraction.
	maxBodyBytes = 10 << 20
)

// Options configures a Fetcher. Zero values select the defaults.
type Options struct {
	Timeout           time.Duration
	MaxWords          int
	RequestsPerSecond float64
}

// Fetcher downloads pages with per-host rate limiting and extracts their
// main text with go-readability. It is safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	maxWords int
	rps      float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a Fetcher with a browser-like user agent.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxWords == 0 {
		opts.MaxWords = defaultMaxWords
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		maxWords: opts.MaxWords,
		rps:      opts.RequestsPerSecond,
		limiters: make(map[string]*rate.Limiter),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject browser headers
// on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	// Use a browser-like User-Agent to avoid bot detection on some sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.base.RoundTrip(req)
}

// Fetch downloads pageURL and returns its article text, whitespace-collapsed
// and truncated to the configured word limit. A page without readable text
// yields ErrNoArticle.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid article URL %q", pageURL)
	}

	if err := f.limiter(u.Hostname()).Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %q: unexpected status code: %d", pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("%w: unsupported content type %q", ErrNoArticle, ct)
	}

	text, err := extractText(io.LimitReader(resp.Body, maxBodyBytes), u)
	if err != nil {
		return "", err
	}

	slog.Debug("extracted article", "url", pageURL, "words", len(strings.Fields(text)))
	return truncateWords(text, f.maxWords), nil
}

// limiter returns the token bucket for host, creating it on first use.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.rps), 1)
		f.limiters[host] = l
	}
	return l
}

// extractText runs go-readability over an HTML document.
func extractText(r io.Reader, pageURL *url.URL) (string, error) {
	art, err := readability.FromReader(r, pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: readability extraction: %v", ErrNoArticle, err)
	}

	text := strings.Join(strings.Fields(art.TextContent), " ")
	if text == "" {
		return "", ErrNoArticle
	}
	return text, nil
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
