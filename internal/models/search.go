package models

// SearchResult is a single hit returned by a search provider.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
}
