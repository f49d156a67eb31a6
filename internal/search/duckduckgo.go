package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hoanghai1803/ideaforge/internal/models"
)

const duckDuckGoLiteURL = "https://lite.duckduckgo.com/lite/"

// DuckDuckGo scrapes DuckDuckGo's HTML lite interface. It needs no API key.
type DuckDuckGo struct {
	Endpoint string
	client   *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider using client.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{Endpoint: duckDuckGoLiteURL, client: client}
}

// Search posts the query to the lite endpoint and parses the result table.
func (d *DuckDuckGo) Search(ctx context.Context, query string, count int) ([]models.SearchResult, error) {
	if err := Validate(query, count); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parsing HTML: %w", err)
	}

	return normalize(parseLiteResults(doc), "duckduckgo", count), nil
}

// parseLiteResults reads result links and their snippets from the lite page.
// Each result is a row holding an a.result-link; the snippet is in the next
// td.result-snippet in document order.
func parseLiteResults(doc *goquery.Document) []models.SearchResult {
	snippets := doc.Find("td.result-snippet").Map(func(_ int, s *goquery.Selection) string {
		return strings.Join(strings.Fields(s.Text()), " ")
	})

	var results []models.SearchResult
	doc.Find("a.result-link").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		r := models.SearchResult{
			URL:   resolveRedirect(href),
			Title: strings.Join(strings.Fields(s.Text()), " "),
		}
		if i < len(snippets) {
			r.Snippet = snippets[i]
		}
		results = append(results, r)
	})
	return results
}

// resolveRedirect unwraps DuckDuckGo's click-tracking links
// (//duckduckgo.com/l/?uddg=<target>) and drops links that stay on
// DuckDuckGo, such as ads.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Host == "" || strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		return ""
	}
	return u.String()
}
