package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hoanghai1803/ideaforge/internal/models"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// braveMaxCount is the largest page size the Brave web search API accepts.
const braveMaxCount = 20

// Brave uses the Brave Search API. An API key is required via
// X-Subscription-Token.
type Brave struct {
	Endpoint string
	apiKey   string
	client   *http.Client
}

// NewBrave creates a Brave provider.
func NewBrave(apiKey string, client *http.Client) *Brave {
	return &Brave{Endpoint: braveSearchURL, apiKey: apiKey, client: client}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search executes one Brave web query.
func (b *Brave) Search(ctx context.Context, query string, count int) ([]models.SearchResult, error) {
	if err := Validate(query, count); err != nil {
		return nil, err
	}
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, errors.New("brave: API key is missing")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(min(count, braveMaxCount)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("brave: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave: unexpected status code: %d", resp.StatusCode)
	}

	var payload braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("brave: parsing response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return normalize(results, "brave", count), nil
}
