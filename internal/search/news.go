package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hoanghai1803/ideaforge/internal/models"
	"github.com/mmcdole/gofeed"
)

const bingNewsRSSURL = "https://www.bing.com/news/search"

// News searches recent news articles through Bing News' RSS output. It
// needs no API key.
type News struct {
	Endpoint string
	client   *http.Client
}

// NewNews creates a News provider.
func NewNews(client *http.Client) *News {
	return &News{Endpoint: bingNewsRSSURL, client: client}
}

// Search fetches and parses the news feed for query.
func (n *News) Search(ctx context.Context, query string, count int) ([]models.SearchResult, error) {
	if err := Validate(query, count); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "rss")

	fp := gofeed.NewParser()
	fp.Client = n.client
	fp.UserAgent = userAgent

	feed, err := fp.ParseURLWithContext(n.Endpoint+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("news: parsing feed: %w", err)
	}

	results := make([]models.SearchResult, 0, len(feed.Items))
	for _, item := range feed.Items {
		results = append(results, models.SearchResult{
			URL:     unwrapNewsLink(item.Link),
			Title:   item.Title,
			Snippet: item.Description,
		})
	}
	return normalize(results, "news", count), nil
}

// unwrapNewsLink returns the publisher URL of a Bing click-through link
// (.../news/apiclick.aspx?url=<target>). Other links are returned as is.
func unwrapNewsLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || !strings.Contains(u.Path, "apiclick") {
		return link
	}
	if target := u.Query().Get("url"); target != "" {
		return target
	}
	return link
}
