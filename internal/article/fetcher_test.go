package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>AI in Marketing</title></head>
<body>
<nav><a href="/">Home</a> | <a href="/about">About</a></nav>
<article>
<h1>How AI is reshaping marketing teams</h1>
<p>Marketing teams are adopting machine learning for audience segmentation, campaign timing, and creative testing. The shift started with recommendation engines and has now reached copywriting, where generative models draft variants that humans refine.</p>
<p>Analysts expect budgets for AI tooling to keep growing, although many teams still struggle with data quality, attribution, and the governance questions that come with automated decisions about customers.</p>
<p>Practitioners recommend starting with a narrow, measurable use case, such as subject line testing, before moving on to larger programs like predictive lifetime value or fully automated bidding.</p>
</article>
<footer>Copyright 2026</footer>
</body></html>`

func newPageServer(t *testing.T, contentType, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newPageServer(t, "text/html; charset=utf-8", articleHTML, http.StatusOK)
	f := NewFetcher(Options{RequestsPerSecond: 100})

	text, err := f.Fetch(context.Background(), srv.URL+"/post")
	require.NoError(t, err)

	assert.Contains(t, text, "audience segmentation")
	assert.Contains(t, text, "subject line testing")
	assert.NotContains(t, text, "\n", "whitespace should be collapsed")
}

func TestFetch_TruncatesWords(t *testing.T) {
	srv := newPageServer(t, "text/html", articleHTML, http.StatusOK)
	f := NewFetcher(Options{MaxWords: 12, RequestsPerSecond: 100})

	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(text), 12)
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		noArticle   bool
	}{
		{name: "not found", contentType: "text/html", body: "missing", status: http.StatusNotFound},
		{name: "server error", contentType: "text/html", body: "", status: http.StatusInternalServerError},
		{name: "pdf", contentType: "application/pdf", body: "%PDF-1.4", status: http.StatusOK, noArticle: true},
		{name: "empty page", contentType: "text/html", body: "<html><body></body></html>", status: http.StatusOK, noArticle: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newPageServer(t, tt.contentType, tt.body, tt.status)
			f := NewFetcher(Options{RequestsPerSecond: 100})

			text, err := f.Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Empty(t, text)
			if tt.noArticle {
				assert.ErrorIs(t, err, ErrNoArticle)
			}
		})
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher(Options{})
	for _, u := range []string{"", "ftp://example.com/file", "://broken"} {
		_, err := f.Fetch(context.Background(), u)
		assert.Error(t, err, u)
	}
}

func TestFetch_RateLimitHonorsContext(t *testing.T) {
	srv := newPageServer(t, "text/html", articleHTML, http.StatusOK)
	// One request per ~17 minutes: the second call cannot get a token.
	f := NewFetcher(Options{RequestsPerSecond: 0.001})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_RateLimitIsPerHost(t *testing.T) {
	a := newPageServer(t, "text/html", articleHTML, http.StatusOK)
	f := NewFetcher(Options{RequestsPerSecond: 0.001})

	_, err := f.Fetch(context.Background(), a.URL)
	require.NoError(t, err)

	// Same server reached through a different host name gets its own bucket.
	other := strings.Replace(a.URL, "127.0.0.1", "localhost", 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = f.Fetch(ctx, other)
	assert.NoError(t, err)
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWords int
		want     string
	}{
		{name: "under limit returns original", input: "hello world", maxWords: 5, want: "hello world"},
		{name: "exactly at limit returns original", input: "one two three", maxWords: 3, want: "one two three"},
		{name: "over limit is truncated", input: "one two three four five six", maxWords: 3, want: "one two three"},
		{name: "empty string returns empty", input: "", maxWords: 5, want: ""},
		{name: "multiple spaces between words", input: "one   two   three   four", maxWords: 2, want: "one two"},
		{name: "leading and trailing whitespace", input: "  one two three  ", maxWords: 2, want: "one two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateWords(tt.input, tt.maxWords))
		})
	}
}
