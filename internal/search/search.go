// Package search resolves a query to an ordered list of result pages.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hoanghai1803/ideaforge/internal/models"
)

var (
	// ErrEmptyQuery is returned for a query that is blank after trimming.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrInvalidCount is returned for a non-positive result count.
	ErrInvalidCount = errors.New("result count must be positive")
)

// Provider runs one search. count bounds the number of results but does
// not guarantee it.
type Provider interface {
	Search(ctx context.Context, query string, count int) ([]models.SearchResult, error)
}

// Config selects and configures a Provider.
type Config struct {
	Provider string // "duckduckgo" | "brave" | "tavily" | "news"
	APIKey   string
	Timeout  time.Duration
}

// New creates the provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "duckduckgo":
		return NewDuckDuckGo(client), nil
	case "brave":
		return NewBrave(cfg.APIKey, client), nil
	case "tavily":
		return NewTavily(cfg.APIKey, client), nil
	case "news":
		return NewNews(client), nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.Provider)
	}
}

// Validate checks query and count before any request is made.
func Validate(query string, count int) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if count < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	return nil
}

// normalize drops results without a URL, removes duplicate URLs keeping the
// first occurrence, tags each result with source and truncates to count.
func normalize(results []models.SearchResult, source string, count int) []models.SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]models.SearchResult, 0, min(len(results), count))
	for _, r := range results {
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		r.Title = strings.TrimSpace(r.Title)
		r.Snippet = strings.TrimSpace(r.Snippet)
		r.Source = source
		out = append(out, r)
		if len(out) == count {
			break
		}
	}
	return out
}

// userAgent is sent by the HTML and RSS providers, which sit behind bot
// detection.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
