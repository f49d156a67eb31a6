package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hoanghai1803/ideaforge/internal/models"
)

const tavilySearchURL = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	Endpoint string
	apiKey   string
	client   *http.Client
}

// NewTavily creates a Tavily provider.
func NewTavily(apiKey string, client *http.Client) *Tavily {
	return &Tavily{Endpoint: tavilySearchURL, apiKey: apiKey, client: client}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts the query to Tavily.
func (t *Tavily) Search(ctx context.Context, query string, count int) ([]models.SearchResult, error) {
	if err := Validate(query, count); err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		APIKey:      t.apiKey,
		SearchDepth: "basic",
		MaxResults:  count,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: unexpected status code: %d", resp.StatusCode)
	}

	var payload tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("tavily: parsing response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return normalize(results, "tavily", count), nil
}
